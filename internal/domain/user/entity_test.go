package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	birthday := date(2000, time.June, 15)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"day before birthday", date(2024, time.June, 14), 23},
		{"on birthday", date(2024, time.June, 15), 24},
		{"day after birthday", date(2024, time.June, 16), 24},
		{"earlier month", date(2024, time.January, 31), 23},
		{"later month", date(2024, time.December, 1), 24},
		{"birth day itself", date(2000, time.June, 15), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(birthday, tt.today))
		})
	}
}

func TestAge_LeapDayBirthday(t *testing.T) {
	birthday := date(2004, time.February, 29)

	assert.Equal(t, 18, Age(birthday, date(2023, time.February, 28)))
	assert.Equal(t, 19, Age(birthday, date(2023, time.March, 1)))
	assert.Equal(t, 20, Age(birthday, date(2024, time.February, 29)))
}

func TestUser_AgeDelegates(t *testing.T) {
	u := User{Birthday: date(1990, time.April, 1)}

	assert.Equal(t, 34, u.Age(date(2024, time.April, 1)))
}

func TestGender_Label(t *testing.T) {
	assert.Equal(t, "男性", GenderMale.Label())
	assert.Equal(t, "女性", GenderFemale.Label())
	assert.Equal(t, "未設定", GenderUnspecified.Label())
	assert.Equal(t, "未設定", Gender(9).Label())
	assert.False(t, Gender(9).Valid())
}
