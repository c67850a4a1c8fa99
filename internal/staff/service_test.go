package staff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/auth"
)

type fakeStore struct {
	members       map[int64]*Member
	hashes        map[int64]string
	lastLoginIDs  []int64
	nextID        int64
	permsByRoleID map[int64][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:       make(map[int64]*Member),
		hashes:        make(map[int64]string),
		nextID:        1,
		permsByRoleID: make(map[int64][]string),
	}
}

func (f *fakeStore) add(username, password, roleName string, active bool) *Member {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	m := &Member{
		ID:       f.nextID,
		Username: username,
		FullName: username,
		RoleID:   1,
		RoleName: roleName,
		IsActive: active,
	}
	f.members[m.ID] = m
	f.hashes[m.ID] = string(hash)
	f.nextID++
	return m
}

func (f *fakeStore) List(_ context.Context) ([]Member, error) {
	out := make([]Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, req CreateRequest, passwordHash string) (*Member, error) {
	m := &Member{
		ID:       f.nextID,
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		RoleID:   req.RoleID,
		IsActive: true,
	}
	f.members[m.ID] = m
	f.hashes[m.ID] = passwordHash
	f.nextID++
	copied := *m
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, req UpdateRequest) (*Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, nil
	}
	if req.FullName != nil {
		m.FullName = *req.FullName
	}
	if req.Email != nil {
		m.Email = *req.Email
	}
	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.RoleID != nil {
		m.RoleID = *req.RoleID
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) Deactivate(_ context.Context, id int64) (bool, error) {
	m, ok := f.members[id]
	if !ok {
		return false, nil
	}
	m.IsActive = false
	return true, nil
}

func (f *fakeStore) Permissions(_ context.Context, roleID int64) ([]string, error) {
	return f.permsByRoleID[roleID], nil
}

func (f *fakeStore) getCredentials(_ context.Context, username string) (*credentials, error) {
	for id, m := range f.members {
		if m.Username == username {
			return &credentials{Member: *m, PasswordHash: f.hashes[id]}, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) passwordHash(_ context.Context, id int64) (string, error) {
	return f.hashes[id], nil
}

func (f *fakeStore) setPasswordHash(_ context.Context, id int64, hash string) error {
	f.hashes[id] = hash
	return nil
}

func (f *fakeStore) touchLastLogin(_ context.Context, id int64) error {
	f.lastLoginIDs = append(f.lastLoginIDs, id)
	return nil
}

func newTestService(store *fakeStore) *Service {
	tokens := auth.NewManager("test-secret", time.Hour)
	return NewService(store, tokens, bcrypt.MinCost, nil)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	store := newFakeStore()
	member := store.add("dr.nguyen", "s3cretpass", "doctor", true)
	svc := newTestService(store)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "dr.nguyen", Password: "s3cretpass"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, member.ID, resp.Staff.ID)
	assert.Equal(t, []int64{member.ID}, store.lastLoginIDs)

	claims, err := auth.NewManager("test-secret", time.Hour).Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.StaffID)
	assert.Equal(t, "dr.nguyen", claims.Username)
	assert.Equal(t, "doctor", claims.Role)
}

func TestLoginRejectsWrongPasswordAndUnknownUserIdentically(t *testing.T) {
	store := newFakeStore()
	store.add("dr.nguyen", "s3cretpass", "doctor", true)
	svc := newTestService(store)

	_, errWrongPass := svc.Login(context.Background(), LoginRequest{Username: "dr.nguyen", Password: "nope"})
	_, errUnknown := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "nope"})

	require.Error(t, errWrongPass)
	require.Error(t, errUnknown)
	assert.True(t, apperror.IsKind(errWrongPass, apperror.KindUnauthorized))
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error())
	assert.Empty(t, store.lastLoginIDs)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	store := newFakeStore()
	store.add("old.timer", "s3cretpass", "doctor", false)
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "old.timer", Password: "s3cretpass"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Login(context.Background(), LoginRequest{Username: "dr.nguyen"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestChangePasswordVerifiesCurrentPassword(t *testing.T) {
	store := newFakeStore()
	member := store.add("dr.nguyen", "oldpassword", "doctor", true)
	svc := newTestService(store)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, member.ID, PasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	err = svc.ChangePassword(ctx, member.ID, PasswordRequest{CurrentPassword: "oldpassword", NewPassword: "short"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, svc.ChangePassword(ctx, member.ID, PasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword"}))

	// The old password no longer works, the new one does.
	_, err = svc.Login(ctx, LoginRequest{Username: "dr.nguyen", Password: "oldpassword"})
	require.Error(t, err)
	_, err = svc.Login(ctx, LoginRequest{Username: "dr.nguyen", Password: "newpassword"})
	require.NoError(t, err)
}

func TestCreateHashesPasswordBeforeStoring(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	member, err := svc.Create(context.Background(), CreateRequest{
		Username: "reception1",
		Password: "longenough",
		FullName: "Front Desk",
		RoleID:   2,
	})
	require.NoError(t, err)

	hash := store.hashes[member.ID]
	assert.NotEqual(t, "longenough", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("longenough")))
}

func TestCreateCollectsAllFieldErrors(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), CreateRequest{Username: "x", Password: "short", Email: "not-an-email"})
	require.Error(t, err)
	require.True(t, apperror.IsValidation(err))

	appErr := apperror.From(err)
	fields := make(map[string]bool, len(appErr.Fields))
	for _, fe := range appErr.Fields {
		fields[fe.Field] = true
	}
	for _, want := range []string{"username", "password", "full_name", "email", "role_id"} {
		assert.True(t, fields[want], "expected field error for %s", want)
	}
}

func TestDeleteDeactivatesInsteadOfRemoving(t *testing.T) {
	store := newFakeStore()
	member := store.add("dr.nguyen", "s3cretpass", "doctor", true)
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, member.ID))

	got, err := svc.Get(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = svc.Delete(ctx, 999)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPermissionsResolvesThroughRole(t *testing.T) {
	store := newFakeStore()
	member := store.add("dr.nguyen", "s3cretpass", "doctor", true)
	store.permsByRoleID[member.RoleID] = []string{"view_patient", "view_medical_record"}
	svc := newTestService(store)

	perms, err := svc.Permissions(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view_patient", "view_medical_record"}, perms)

	_, err = svc.Permissions(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
