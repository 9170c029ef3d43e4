//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func TestRegisterLoginAndSteps(t *testing.T) {
	env := newTestEnv(t, "")

	var registered envelope[struct {
		UserID int64 `json:"user_id"`
	}]
	status := postJSON(t, env.server.URL+"/register", map[string]any{
		"username":     "Asha",
		"phone_number": "9876543210",
		"email":        "asha@example.com",
		"DOB":          "1995-04-12",
		"height":       165,
		"weight":       58,
		"diet":         "veg",
		"password":     "s3cret-pass",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, int64(1), registered.Data.UserID)

	status = postJSON(t, env.server.URL+"/register", map[string]any{
		"username": "Other", "phone_number": "9876543210", "password": "x",
	}, nil)
	require.Equal(t, http.StatusConflict, status)

	require.Equal(t, http.StatusOK, postJSON(t, env.server.URL+"/login",
		map[string]string{"phone_number": "9876543210", "password": "s3cret-pass"}, nil))
	require.Equal(t, http.StatusUnauthorized, postJSON(t, env.server.URL+"/login",
		map[string]string{"phone_number": "9876543210", "password": "wrong"}, nil))

	today := time.Now().UTC()
	for i := 0; i < 3; i++ {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		status = postJSON(t, env.server.URL+"/update-steps", map[string]any{
			"user_id": 1, "date": day, "steps": 1000 * (i + 1),
		}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status = postJSON(t, env.server.URL+"/update-steps", map[string]any{
		"user_id": 999, "date": today.Format("2006-01-02"), "steps": 10,
	}, nil)
	require.Equal(t, http.StatusNotFound, status)

	var total envelope[struct {
		TotalSteps int64 `json:"total_steps"`
	}]
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/get-total-steps?id=1", &total))
	require.Equal(t, int64(6000), total.Data.TotalSteps)

	var week envelope[[]struct {
		Date  string `json:"date"`
		Steps int64  `json:"steps"`
	}]
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/weekly-steps?id=1", &week))
	require.Len(t, week.Data, 7)
	require.Equal(t, int64(1000), week.Data[6].Steps)

	var streak envelope[struct {
		LongestStreak int `json:"longest_streak"`
	}]
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/get-streaks?id=1", &streak))
	require.Equal(t, 3, streak.Data.LongestStreak)

	var found envelope[[]struct {
		Username string `json:"username"`
	}]
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/users/search?name=ash", &found))
	require.Len(t, found.Data, 1)
}
