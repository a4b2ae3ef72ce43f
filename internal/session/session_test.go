package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/tests/testutil"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func signToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "email": email, "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// fakeAuth issues tokens for one known password.
type fakeAuth struct {
	t        *testing.T
	password string
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (string, error) {
	if password != f.password {
		return "", errors.New("invalid login credentials")
	}
	return signToken(f.t, "user-"+email, email, now.Add(time.Hour)), nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (string, error) {
	return f.SignIn(ctx, email, password)
}

func newProvider(t *testing.T, tokens *testutil.MemoryTokenStore) *session.Provider {
	t.Helper()
	return session.NewProvider(&fakeAuth{t: t, password: "pw"}, tokens,
		session.WithClock(func() time.Time { return now }))
}

func TestProvider_StartsUnset(t *testing.T) {
	p := newProvider(t, &testutil.MemoryTokenStore{})

	assert.Equal(t, session.ModeUnset, p.CurrentMode())
	assert.Nil(t, p.CurrentIdentity())
	assert.Equal(t, uint64(0), p.Current().Epoch)
}

func TestProvider_LoginPersistsTokenAndNotifies(t *testing.T) {
	ctx := context.Background()
	tokens := &testutil.MemoryTokenStore{}
	p := newProvider(t, tokens)

	var seen []session.State
	p.Subscribe(func(_ context.Context, s session.State) error {
		seen = append(seen, s)
		return nil
	})

	st, err := p.Login(ctx, " ada@example.com ", "pw")
	require.NoError(t, err)

	assert.Equal(t, session.ModeAuthenticated, st.Mode)
	require.NotNil(t, st.Identity)
	assert.Equal(t, "user-ada@example.com", st.Identity.UserID)
	assert.Equal(t, "ada@example.com", st.Identity.Email)
	assert.Equal(t, now.Add(time.Hour), st.Identity.ExpiresAt.UTC())
	assert.Equal(t, st.Identity.AccessToken, tokens.Token)
	require.Len(t, seen, 1)
	assert.Equal(t, st, seen[0])
}

func TestProvider_LoginFailureKeepsState(t *testing.T) {
	p := newProvider(t, &testutil.MemoryTokenStore{})
	calls := 0
	p.Subscribe(func(context.Context, session.State) error {
		calls++
		return nil
	})

	_, err := p.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, session.ModeUnset, p.CurrentMode())
	assert.Zero(t, calls)
}

func TestProvider_TransitionsAdvanceEpoch(t *testing.T) {
	ctx := context.Background()
	tokens := &testutil.MemoryTokenStore{}
	p := newProvider(t, tokens)

	guest, err := p.SkipAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ModeGuest, guest.Mode)
	assert.Nil(t, guest.Identity)

	authed, err := p.SignUp(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	assert.Greater(t, authed.Epoch, guest.Epoch)

	out, err := p.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ModeUnset, out.Mode)
	assert.Greater(t, out.Epoch, authed.Epoch)
	assert.Empty(t, tokens.Token)
}

func TestProvider_ListenersRunInOrderAndFirstErrorWins(t *testing.T) {
	p := newProvider(t, &testutil.MemoryTokenStore{})
	var order []string
	errA := errors.New("a failed")
	p.Subscribe(func(context.Context, session.State) error {
		order = append(order, "a")
		return errA
	})
	unsubB := p.Subscribe(func(context.Context, session.State) error {
		order = append(order, "b")
		return errors.New("b failed")
	})
	p.Subscribe(func(context.Context, session.State) error {
		order = append(order, "c")
		return nil
	})

	_, err := p.SkipAuth(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, []string{"a", "b", "c"}, order)

	unsubB()
	order = nil
	_, _ = p.Logout(context.Background())
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestProvider_Restore(t *testing.T) {
	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantMode session.Mode
		kept     bool
	}{
		{"none", func(*testing.T) string { return "" }, session.ModeUnset, false},
		{"valid", func(t *testing.T) string {
			return signToken(t, "u1", "u1@example.com", now.Add(time.Minute))
		}, session.ModeAuthenticated, true},
		{"expired", func(t *testing.T) string {
			return signToken(t, "u1", "u1@example.com", now.Add(-time.Minute))
		}, session.ModeUnset, false},
		{"garbage", func(*testing.T) string { return "not-a-jwt" }, session.ModeUnset, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token(t)
			tokens := &testutil.MemoryTokenStore{Token: token}
			p := newProvider(t, tokens)

			st, err := p.Restore(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, st.Mode)
			if tt.kept {
				assert.Equal(t, token, tokens.Token)
				assert.Equal(t, "u1", st.Identity.UserID)
			} else {
				assert.Empty(t, tokens.Token)
			}
		})
	}
}

func TestDecodeToken_RequiresSubject(t *testing.T) {
	token := signToken(t, "", "x@example.com", now.Add(time.Hour))
	_, err := session.DecodeToken(token)
	assert.Error(t, err)
}

func TestIdentity_Expired(t *testing.T) {
	assert.False(t, session.Identity{}.Expired(now))
	assert.True(t, session.Identity{ExpiresAt: now}.Expired(now))
	assert.False(t, session.Identity{ExpiresAt: now.Add(time.Second)}.Expired(now))
}
