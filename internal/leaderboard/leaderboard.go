// Package leaderboard derives ranked statistics from the flat results log.
// Everything here is recomputed from scratch on every read; nothing derived
// is ever persisted.
package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/sanketk/quizdeck/internal/model"
)

// DefaultLimit caps the top-performers and recent-attempts views.
const DefaultLimit = 10

// Aggregate partitions rows into sessions and users. Rows written by this
// application group by their session id; rows from older files fall back to
// the (user, timestamp, exam, section, topic) tuple, whose second-granularity
// collisions are a documented defect of that format. Inconsistent data is
// reported through warnings, never repaired. Empty input yields empty output.
func Aggregate(rows []model.ResultRow) (sessions []model.SessionAggregate, users []model.UserAggregate, warnings []string) {
	type group struct {
		first model.ResultRow
		score int
		total int
	}
	var order []string
	groups := make(map[string]*group)

	for _, r := range rows {
		key := r.SessionID
		if key == "" {
			key = fmt.Sprintf("%s|%s|%s|%s|%s",
				r.UserName, r.Timestamp.Format(model.TimestampLayout), r.Exam, r.Section, r.Topic)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{first: r, total: r.TotalQuestions}
			groups[key] = g
			order = append(order, key)
		}
		if r.TotalQuestions != g.total {
			warnings = append(warnings, fmt.Sprintf(
				"session %s of %s has inconsistent total_questions (%d vs %d)",
				key, r.UserName, g.total, r.TotalQuestions))
		}
		if r.Result == model.ResultCorrect {
			g.score++
		}
	}

	for _, key := range order {
		g := groups[key]
		pct := 0.0
		if g.total > 0 {
			pct = round1(100 * float64(g.score) / float64(g.total))
		} else {
			warnings = append(warnings, fmt.Sprintf("session %s of %s has zero total_questions", key, g.first.UserName))
		}
		sessions = append(sessions, model.SessionAggregate{
			SessionID:      g.first.SessionID,
			UserName:       g.first.UserName,
			Timestamp:      g.first.Timestamp,
			Exam:           g.first.Exam,
			Section:        g.first.Section,
			Topic:          g.first.Topic,
			Score:          g.score,
			TotalQuestions: g.total,
			Percentage:     pct,
		})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Timestamp.Equal(sessions[j].Timestamp) {
			return sessions[i].Timestamp.Before(sessions[j].Timestamp)
		}
		return sessions[i].UserName < sessions[j].UserName
	})

	totals := make(map[string]*model.UserAggregate)
	var userOrder []string
	for _, sa := range sessions {
		u, ok := totals[sa.UserName]
		if !ok {
			u = &model.UserAggregate{UserName: sa.UserName}
			totals[sa.UserName] = u
			userOrder = append(userOrder, sa.UserName)
		}
		u.TotalQuizzes++
		u.TotalCorrect += sa.Score
		u.TotalAttempted += sa.TotalQuestions
	}
	for _, name := range userOrder {
		u := totals[name]
		if u.TotalAttempted > 0 {
			u.Accuracy = round2(100 * float64(u.TotalCorrect) / float64(u.TotalAttempted))
		}
		users = append(users, *u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Accuracy != users[j].Accuracy {
			return users[i].Accuracy > users[j].Accuracy
		}
		return users[i].UserName < users[j].UserName
	})

	return sessions, users, warnings
}

// Top returns the n best sessions by percentage. Ties rank the earlier
// attempt first, then by user name, so the order is stable.
func Top(sessions []model.SessionAggregate, n int) []model.SessionAggregate {
	out := make([]model.SessionAggregate, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].UserName < out[j].UserName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Recent returns the n most recent sessions, newest first.
func Recent(sessions []model.SessionAggregate, n int) []model.SessionAggregate {
	out := make([]model.SessionAggregate, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].UserName < out[j].UserName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Build assembles every view the leaderboard screen needs from raw rows.
func Build(rows []model.ResultRow) model.Leaderboard {
	sessions, users, warnings := Aggregate(rows)
	lb := model.Leaderboard{
		Sessions: sessions,
		Users:    users,
		Top:      Top(sessions, DefaultLimit),
		Recent:   Recent(sessions, DefaultLimit),
		Warnings: warnings,
	}
	if lb.Sessions == nil {
		lb.Sessions = []model.SessionAggregate{}
	}
	if lb.Users == nil {
		lb.Users = []model.UserAggregate{}
	}
	return lb
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
