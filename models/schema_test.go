// 測試目的：欄位驗證與日期規則
package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateInsertEvent_Valid(t *testing.T) {
	in := InsertEvent{Name: "Standup", Date: "2099-01-01", Time: "09:00", Location: "Room 1"}
	assert.Empty(t, ValidateInsertEvent(in))

	in.Description = strptr("")
	assert.Empty(t, ValidateInsertEvent(in), "empty description is allowed")
}

func TestValidateInsertEvent_ReportsEveryField(t *testing.T) {
	errs := ValidateInsertEvent(InsertEvent{})
	assert.ElementsMatch(t, []string{"name", "date", "time", "location"}, fields(errs))
	for _, e := range errs {
		assert.NotEmpty(t, e.Message)
	}
}

func TestValidateInsertEvent_BadFormats(t *testing.T) {
	cases := []struct {
		name  string
		in    InsertEvent
		field string
	}{
		{"month 13", InsertEvent{Name: "n", Date: "2099-13-01", Time: "09:00", Location: "l"}, "date"},
		{"not a date", InsertEvent{Name: "n", Date: "tomorrow", Time: "09:00", Location: "l"}, "date"},
		{"hour 25", InsertEvent{Name: "n", Date: "2099-01-01", Time: "25:00", Location: "l"}, "time"},
		{"not a time", InsertEvent{Name: "n", Date: "2099-01-01", Time: "noon", Location: "l"}, "time"},
		{"single digit hour", InsertEvent{Name: "n", Date: "2099-01-01", Time: "9:00", Location: "l"}, "time"},
		{"seconds", InsertEvent{Name: "n", Date: "2099-01-01", Time: "09:00:00", Location: "l"}, "time"},
		{"padded time", InsertEvent{Name: "n", Date: "2099-01-01", Time: " 09:00", Location: "l"}, "time"},
		{"five digit year", InsertEvent{Name: "n", Date: "+2099-01-01", Time: "09:00", Location: "l"}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateInsertEvent(tc.in)
			assert.Equal(t, []string{tc.field}, fields(errs))
		})
	}
}

func TestValidateInsertUser(t *testing.T) {
	assert.Empty(t, ValidateInsertUser(InsertUser{Username: "a", Password: "b"}))
	assert.ElementsMatch(t, []string{"username", "password"}, fields(ValidateInsertUser(InsertUser{})))
}

func TestValidateInsertUser_PasswordByteLimit(t *testing.T) {
	assert.Empty(t, ValidateInsertUser(InsertUser{Username: "a", Password: strings.Repeat("x", 72)}))

	errs := ValidateInsertUser(InsertUser{Username: "a", Password: strings.Repeat("x", 73)})
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
	assert.Equal(t, "Password must be at most 72 bytes", errs[0].Message)

	// 25 個三位元組字元 = 75 bytes
	assert.Len(t, ValidateInsertUser(InsertUser{Username: "a", Password: strings.Repeat("密", 25)}), 1)
}

func TestStartsAt(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := InsertEvent{Date: "2099-01-01", Time: "09:30"}.StartsAt(loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2099, 1, 1, 7, 30, 0, 0, time.UTC)))
}

func TestValidateEventDateNotPast(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

	fe := ValidateEventDateNotPast(InsertEvent{Date: "2026-10-14"}, now, time.UTC)
	require.NotNil(t, fe)
	assert.Equal(t, "date", fe.Field)
	assert.Equal(t, "Event date must be today or in the future", fe.Message)

	// 今天（即使時間已過）也可以
	assert.Nil(t, ValidateEventDateNotPast(InsertEvent{Date: "2026-10-15", Time: "08:00"}, now, time.UTC))
	assert.Nil(t, ValidateEventDateNotPast(InsertEvent{Date: "2026-10-16"}, now, time.UTC))
	// 格式錯誤不在這裡報
	assert.Nil(t, ValidateEventDateNotPast(InsertEvent{Date: "bad"}, now, time.UTC))
}

func TestValidateEventDateNotPast_UsesLocationCalendarDay(t *testing.T) {
	// UTC 10/15 23:00 在 UTC+2 已是 10/16
	now := time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC)
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	assert.NotNil(t, ValidateEventDateNotPast(InsertEvent{Date: "2026-10-15"}, now, plus2))
	assert.Nil(t, ValidateEventDateNotPast(InsertEvent{Date: "2026-10-15"}, now, time.UTC))
}

func TestEventLess(t *testing.T) {
	a := Event{ID: 2, Date: "2099-01-01", Time: "09:00"}
	b := Event{ID: 1, Date: "2099-01-01", Time: "09:00"}
	c := Event{ID: 3, Date: "2099-01-01", Time: "10:00"}
	assert.True(t, EventLess(b, a))
	assert.False(t, EventLess(a, b))
	assert.True(t, EventLess(a, c))
	assert.False(t, EventLess(c, a))
}
