package member

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/member"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/kintai-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, time.April, 1, 18, 0, 0, 0, clock.LoadLocation(clock.DefaultZone))

func strPtr(s string) *string { return &s }

type memberFixture struct {
	svc   member.MemberService
	store *memory.Store
	admin auth.Identity
	taro  auth.Identity
	hana  auth.Identity
}

func newMemberFixture(t *testing.T) memberFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	create := func(id, name, email string, isAdmin bool, createdAt time.Time) auth.Identity {
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		require.NoError(t, err)
		_, err = store.Users().Create(ctx, user.User{
			ID:           id,
			Username:     name,
			Birthday:     time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC),
			Gender:       user.GenderUnspecified,
			Email:        email,
			PasswordHash: string(hash),
			IsAdmin:      isAdmin,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		})
		require.NoError(t, err)
		return auth.Identity{UserID: id, Email: email, IsAdmin: isAdmin}
	}

	f := memberFixture{store: store}
	f.admin = create("0190f2a0-0000-7000-8000-00000000000a", "管理者", "admin@example.com", true, testNow.Add(-3*time.Hour))
	f.taro = create("0190f2a0-0000-7000-8000-00000000000b", "山田太郎", "taro@example.com", false, testNow.Add(-2*time.Hour))
	f.hana = create("0190f2a0-0000-7000-8000-00000000000c", "佐藤花子", "hana@example.com", false, testNow.Add(-1*time.Hour))

	f.svc = NewMemberService(store.TxManager(), store.Users(), store.Attendances(), clock.NewFixed(testNow, clock.DefaultZone))
	return f
}

func (f memberFixture) addRecord(t *testing.T, id, userID string, clockIn time.Time, clockOut *time.Time) {
	t.Helper()
	status := attendance.StatusClockedIn
	if clockOut != nil {
		status = attendance.StatusClockedOut
	}
	_, err := f.store.Attendances().Create(context.Background(), attendance.Attendance{
		ID:        id,
		UserID:    userID,
		ClockIn:   clockIn,
		ClockOut:  clockOut,
		Status:    status,
		CreatedAt: clockIn,
		UpdatedAt: clockIn,
	})
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	f := newMemberFixture(t)

	resp, err := f.svc.GetProfile(context.Background(), f.taro)
	require.NoError(t, err)
	assert.Equal(t, "山田太郎", resp.Username)
	assert.Equal(t, 23, resp.Age)
	assert.Equal(t, "未設定", resp.GenderLabel)

	_, err = f.svc.GetProfile(context.Background(), auth.Identity{UserID: "missing"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestEditProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates provided fields only", func(t *testing.T) {
		f := newMemberFixture(t)

		resp, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{
			Username:    strPtr("山田次郎"),
			PhoneNumber: strPtr("03-1234-5678"),
		})
		require.NoError(t, err)
		assert.Equal(t, "山田次郎", resp.Username)
		assert.Equal(t, "taro@example.com", resp.Email)
		require.NotNil(t, resp.PhoneNumber)
		assert.Equal(t, "03-1234-5678", *resp.PhoneNumber)
	})

	t.Run("empty phone clears it", func(t *testing.T) {
		f := newMemberFixture(t)
		_, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{PhoneNumber: strPtr("03-1234-5678")})
		require.NoError(t, err)

		resp, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{PhoneNumber: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, resp.PhoneNumber)
	})

	t.Run("present but empty password is rejected", func(t *testing.T) {
		f := newMemberFixture(t)

		_, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{Password: strPtr("")})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "⚠️パスワードが入力されていません．", verrs.ToMap()["password"])
	})

	t.Run("absent password keeps the old hash", func(t *testing.T) {
		f := newMemberFixture(t)
		before, err := f.store.Users().GetByID(ctx, f.taro.UserID)
		require.NoError(t, err)

		_, err = f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{Username: strPtr("たろう")})
		require.NoError(t, err)

		after, err := f.store.Users().GetByID(ctx, f.taro.UserID)
		require.NoError(t, err)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("new password is hashed", func(t *testing.T) {
		f := newMemberFixture(t)

		_, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{Password: strPtr("newpassword1")})
		require.NoError(t, err)

		after, err := f.store.Users().GetByID(ctx, f.taro.UserID)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("newpassword1")))
	})

	t.Run("email taken by another user", func(t *testing.T) {
		f := newMemberFixture(t)

		_, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{Email: strPtr("hana@example.com")})
		assert.ErrorIs(t, err, user.ErrUserEmailExists)
	})

	t.Run("keeping the same email is fine", func(t *testing.T) {
		f := newMemberFixture(t)

		resp, err := f.svc.EditProfile(ctx, f.taro, user.EditProfileRequest{Email: strPtr("taro@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "taro@example.com", resp.Email)
	})
}

func TestAdminOperations_RequireAdmin(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListAllUsers(ctx, f.taro)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = f.svc.UserDetails(ctx, f.taro, f.hana.UserID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	err = f.svc.DeleteUser(ctx, f.taro, f.hana.UserID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = f.store.Users().GetByID(ctx, f.hana.UserID)
	assert.NoError(t, err)
}

func TestListAllUsers(t *testing.T) {
	f := newMemberFixture(t)
	f.addRecord(t, "0190f2a0-0000-7000-8000-0000000000a1", f.taro.UserID, testNow.Add(-time.Hour), nil)

	members, err := f.svc.ListAllUsers(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, members, 3)

	assert.Equal(t, f.admin.UserID, members[0].ID)
	assert.Equal(t, f.taro.UserID, members[1].ID)
	assert.Equal(t, f.hana.UserID, members[2].ID)

	assert.False(t, members[0].OnWork)
	assert.True(t, members[1].OnWork)
	assert.False(t, members[2].OnWork)
}

func TestUserDetails(t *testing.T) {
	f := newMemberFixture(t)
	in := testNow.Add(-9 * time.Hour)
	out := in.Add(8*time.Hour + 45*time.Minute)
	f.addRecord(t, "0190f2a0-0000-7000-8000-0000000000b1", f.hana.UserID, in, &out)

	details, err := f.svc.UserDetails(context.Background(), f.admin, f.hana.UserID)
	require.NoError(t, err)
	assert.Equal(t, "佐藤花子", details.User.Username)
	assert.False(t, details.OnWork)
	require.Len(t, details.Records, 1)
	assert.Equal(t, "8時間45分", details.Records[0].FormattedWorkTime)

	_, err = f.svc.UserDetails(context.Background(), f.admin, "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()
	in := testNow.Add(-9 * time.Hour)
	out := in.Add(8 * time.Hour)
	f.addRecord(t, "0190f2a0-0000-7000-8000-0000000000c1", f.hana.UserID, in, &out)
	f.addRecord(t, "0190f2a0-0000-7000-8000-0000000000c2", f.hana.UserID, testNow.Add(-time.Hour), nil)
	f.addRecord(t, "0190f2a0-0000-7000-8000-0000000000c3", f.taro.UserID, testNow.Add(-time.Hour), nil)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.hana.UserID))

	_, err := f.store.Users().GetByID(ctx, f.hana.UserID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	records, err := f.store.Attendances().ListByUserID(ctx, f.hana.UserID)
	require.NoError(t, err)
	assert.Empty(t, records)

	// other members are untouched
	records, err = f.store.Attendances().ListByUserID(ctx, f.taro.UserID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	err = f.svc.DeleteUser(ctx, f.admin, f.hana.UserID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSetAdmin(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetAdmin(ctx, user.SetAdminRequest{Email: "taro@example.com", IsAdmin: true}))
	u, err := f.store.Users().GetByEmail(ctx, "taro@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	require.NoError(t, f.svc.SetAdmin(ctx, user.SetAdminRequest{Email: "taro@example.com", IsAdmin: false}))
	u, err = f.store.Users().GetByEmail(ctx, "taro@example.com")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)

	err = f.svc.SetAdmin(ctx, user.SetAdminRequest{Email: "nobody@example.com", IsAdmin: true})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	var verrs validator.ValidationErrors
	err = f.svc.SetAdmin(ctx, user.SetAdminRequest{Email: "not-an-email"})
	assert.ErrorAs(t, err, &verrs)
}
