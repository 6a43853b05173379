package dateformat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	// Tuesday, 5 March 2024 09:07:03
	date := time.Date(2024, time.March, 5, 9, 7, 3, 0, time.Local)

	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{"iso date renders digits only", "YYYY-MM-DD", "2024-03-05"},
		{"time", "HH:mm:ss", "09:07:03"},
		{"full month name is russian", "DD MMMM YYYY", "05 март 2024"},
		{"short month name is english", "DD MMM YYYY", "05 Mar 2024"},
		{"weekday", "dddd", "вторник"},
		{"literal text passes through", "Read on YYYY", "Read on 2024"},
		{"only first occurrence of a token is replaced", "DD/MM DD", "05/03 DD"},
		{"empty pattern", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(date, tt.pattern))
		})
	}
}

func TestFormatTime_NoMonthNameResidue(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		date := time.Date(2023, month, 28, 0, 0, 0, 0, time.Local)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, FormatTime(date, "YYYY-MM-DD"))
	}
}

func TestFormat(t *testing.T) {
	t.Run("parses device timestamps", func(t *testing.T) {
		assert.Equal(t, "2023-11-02 14:30", Format("2023-11-02T14:30:00.000", "YYYY-MM-DD HH:mm"))
	})

	t.Run("parses plain dates", func(t *testing.T) {
		assert.Equal(t, "02.11.2023", Format("2023-11-02", "DD.MM.YYYY"))
	})

	t.Run("empty input renders empty", func(t *testing.T) {
		assert.Equal(t, "", Format("", "YYYY"))
		assert.Equal(t, "", Format("   ", "YYYY"))
	})

	t.Run("malformed input is returned unchanged", func(t *testing.T) {
		assert.Equal(t, "not a date", Format("not a date", "YYYY-MM-DD"))
	})
}

func TestParse(t *testing.T) {
	parsed, ok := Parse("2023-11-02T14:30:00")
	assert.True(t, ok)
	assert.Equal(t, 2023, parsed.Year())
	assert.Equal(t, time.November, parsed.Month())

	_, ok = Parse("garbage")
	assert.False(t, ok)
}
