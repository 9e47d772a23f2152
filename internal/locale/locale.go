// Package locale holds the static en/cn strings the booking flow and the
// profile pages need.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

type Language string

const (
	English Language = "en"
	Chinese Language = "cn"
)

// Value is either a single string or an ordered list of strings.
type Value struct {
	Text string
	List []string
}

func (v Value) IsList() bool { return v.List != nil }

var dictionaries = map[Language]map[string]Value{
	English: {
		"scheduleConsultation": {Text: "Schedule a Consultation"},
		"bookingConfirmed":     {Text: "Booking Confirmed"},
		"selectTime":           {Text: "Select Time"},
		"pleaseSelectDate":     {Text: "Please select a date first"},
		"confirmBooking":       {Text: "Confirm Booking"},
		"bookingSuccessMsg1":   {Text: "We have scheduled your session on "},
		"bookingSuccessMsg2":   {Text: " at "},
		"bookingSuccessMsg3":   {Text: ". A calendar invitation has been sent to your email."},
		"backToBrowsing":       {Text: "Back to browsing"},
		"upcomingSessions":     {Text: "Upcoming Sessions"},
		"pastSessions":         {Text: "Past Sessions"},
		"noConsultations":      {Text: "No scheduled sessions found."},
		"status":               {Text: "Status"},
		"date":                 {Text: "Date"},
		"time":                 {Text: "Time"},
		"confirmed":            {Text: "Confirmed"},
		"completed":            {Text: "Completed"},
		"cancelled":            {Text: "Cancelled"},
		"calendarDaysShort":    {List: []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}},
		"timeSlots": {List: []string{
			"10:00 - 11:00", "11:00 - 12:00", "14:00 - 15:00",
			"15:00 - 16:00", "16:00 - 17:00", "17:00 - 18:00",
		}},
	},
	Chinese: {
		"scheduleConsultation": {Text: "预约咨询"},
		"bookingConfirmed":     {Text: "预约已确认"},
		"selectTime":           {Text: "选择时间"},
		"pleaseSelectDate":     {Text: "请先选择日期"},
		"confirmBooking":       {Text: "确认预约"},
		"bookingSuccessMsg1":   {Text: "我们已为您安排了在 "},
		"bookingSuccessMsg2":   {Text: " "},
		"bookingSuccessMsg3":   {Text: " 的会议。日历邀请已发送至您的邮箱。"},
		"backToBrowsing":       {Text: "返回浏览"},
		"upcomingSessions":     {Text: "即将进行的咨询"},
		"pastSessions":         {Text: "历史咨询"},
		"noConsultations":      {Text: "暂无预约记录"},
		"status":               {Text: "状态"},
		"date":                 {Text: "日期"},
		"time":                 {Text: "时间"},
		"confirmed":            {Text: "已确认"},
		"completed":            {Text: "已完成"},
		"cancelled":            {Text: "已取消"},
		"calendarDaysShort":    {List: []string{"日", "一", "二", "三", "四", "五", "六"}},
	},
}

// T looks key up for lang, falling back to English and then to the key.
func T(lang Language, key string) Value {
	if v, ok := dictionaries[lang][key]; ok {
		return v
	}
	if v, ok := dictionaries[English][key]; ok {
		return v
	}
	return Value{Text: key}
}

// Strings returns a list value, or nil when key holds a single string.
func Strings(lang Language, key string) []string {
	return T(lang, key).List
}

// Dictionary returns a copy of the resolved table for lang, including
// English fallbacks for keys lang does not define.
func Dictionary(lang Language) map[string]Value {
	out := make(map[string]Value, len(dictionaries[English]))
	for k, v := range dictionaries[English] {
		out[k] = v
	}
	for k, v := range dictionaries[lang] {
		out[k] = v
	}
	return out
}

// Parse accepts "en", "cn" and BCP 47 tags such as "zh-CN".
func Parse(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case string(English):
		return English, true
	case string(Chinese):
		return Chinese, true
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	return fromTag(tag), true
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// Match picks a language from an Accept-Language header value.
func Match(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	tag, _, _ := matcher.Match(tags...)
	return fromTag(tag)
}

func fromTag(tag language.Tag) Language {
	base, _ := tag.Base()
	if base.String() == "zh" {
		return Chinese
	}
	return English
}
