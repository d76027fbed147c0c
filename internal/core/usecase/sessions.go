package usecase

import (
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

type SessionBucket string

const (
	BucketToday     SessionBucket = "today"
	BucketYesterday SessionBucket = "yesterday"
	BucketOlder     SessionBucket = "older"
)

func (b SessionBucket) Label() string {
	switch b {
	case BucketToday:
		return "오늘"
	case BucketYesterday:
		return "어제"
	default:
		return "이전"
	}
}

type SessionGroup struct {
	Bucket   SessionBucket
	Sessions []domain.Session
}

// GroupSessions buckets sessions by the calendar date of their last update
// in loc. Order inside a bucket follows the input; empty buckets are omitted.
// Sessions whose timestamp cannot be read land in the older bucket.
func GroupSessions(sessions []domain.Session, now time.Time, loc *time.Location) []SessionGroup {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := dateOf(now)
	yesterday := dateOf(now.AddDate(0, 0, -1))

	buckets := map[SessionBucket][]domain.Session{}
	for _, session := range sessions {
		bucket := BucketOlder
		if updated, ok := session.UpdatedAt.In(loc); ok {
			switch dateOf(updated) {
			case today:
				bucket = BucketToday
			case yesterday:
				bucket = BucketYesterday
			}
		}
		buckets[bucket] = append(buckets[bucket], session)
	}

	groups := make([]SessionGroup, 0, 3)
	for _, bucket := range []SessionBucket{BucketToday, BucketYesterday, BucketOlder} {
		if len(buckets[bucket]) == 0 {
			continue
		}
		groups = append(groups, SessionGroup{Bucket: bucket, Sessions: buckets[bucket]})
	}
	return groups
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}
