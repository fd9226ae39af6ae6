package auth

import (
	"fmt"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:test-bot-token"

func signedInitData(t *testing.T, authDate time.Time) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", `{"id": 99, "first_name": "Mei", "last_name": "Lin", "username": "meilin"}`)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAE1")
	return SignInitData(values, testBotToken)
}

func TestValidateInitData(t *testing.T) {
	t.Run("valid data round trips", func(t *testing.T) {
		initData := signedInitData(t, time.Now())
		user, err := ValidateInitData(initData, testBotToken, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "99", user.TelegramID())
		assert.Equal(t, "Mei Lin", user.DisplayName())
	})

	t.Run("wrong bot token rejected", func(t *testing.T) {
		initData := signedInitData(t, time.Now())
		_, err := ValidateInitData(initData, "other-token", time.Hour)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		initData := signedInitData(t, time.Now())
		values, err := url.ParseQuery(initData)
		require.NoError(t, err)
		values.Set("user", `{"id": 1}`)
		_, err = ValidateInitData(values.Encode(), testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("missing hash rejected", func(t *testing.T) {
		_, err := ValidateInitData("user=%7B%22id%22%3A1%7D&auth_date=1", testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("stale auth_date rejected", func(t *testing.T) {
		initData := signedInitData(t, time.Now().Add(-2*time.Hour))
		_, err := ValidateInitData(initData, testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrExpiredInitData)
	})

	t.Run("zero max age skips freshness check", func(t *testing.T) {
		initData := signedInitData(t, time.Now().Add(-48*time.Hour))
		_, err := ValidateInitData(initData, testBotToken, 0)
		assert.NoError(t, err)
	})

	t.Run("missing user rejected", func(t *testing.T) {
		values := url.Values{}
		values.Set("auth_date", fmt.Sprint(time.Now().Unix()))
		initData := SignInitData(values, testBotToken)
		_, err := ValidateInitData(initData, testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})
}

func TestWebAppUserDisplayName(t *testing.T) {
	assert.Equal(t, "Mei Lin", WebAppUser{FirstName: "Mei", LastName: "Lin"}.DisplayName())
	assert.Equal(t, "Mei", WebAppUser{FirstName: "Mei"}.DisplayName())
	assert.Equal(t, "meilin", WebAppUser{Username: "meilin"}.DisplayName())
	assert.Equal(t, "Friend", WebAppUser{}.DisplayName())
}
