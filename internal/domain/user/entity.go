package user

import "time"

type Gender int16

const (
	GenderMale        Gender = 0
	GenderFemale      Gender = 1
	GenderUnspecified Gender = 2
)

// Label returns the display label used on member pages.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "男性"
	case GenderFemale:
		return "女性"
	default:
		return "未設定"
	}
}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnspecified
}

type User struct {
	ID              string
	Username        string
	Birthday        time.Time
	Gender          Gender
	PhoneNumber     *string
	Email           string
	PasswordHash    string
	IsAdmin         bool
	OAuthProviderID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Age is the user's age on the given day.
func (u *User) Age(today time.Time) int {
	return Age(u.Birthday, today)
}

// Age returns the whole number of years between birthday and today: the
// difference in years, less one when today's month/day comes before the
// birthday's month/day.
func Age(birthday, today time.Time) int {
	age := today.Year() - birthday.Year()
	if today.Month() < birthday.Month() ||
		(today.Month() == birthday.Month() && today.Day() < birthday.Day()) {
		age--
	}
	return age
}

// Member is a user together with whether they currently have an open record.
type Member struct {
	User
	OnWork bool
}
