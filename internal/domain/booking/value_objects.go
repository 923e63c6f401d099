package booking

import (
	"strings"
	"time"

	"petcare-booking/internal/domain/user"

	"github.com/google/uuid"
)

// ServiceSnapshot freezes the service terms a booking was made under.
type ServiceSnapshot struct {
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	DurationMin int    `json:"durationMin"`
	Category    string `json:"category"`
}

type HistoryEntry struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy uuid.UUID `json:"changedBy"`
	Reason    string    `json:"reason,omitempty"`
}

// Actor performs a lifecycle operation. The system actor has a nil ID and no role.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func ActorFrom(r user.Requester) Actor {
	return Actor{ID: r.ID, Role: r.Role}
}

func SystemActor() Actor { return Actor{} }

func (a Actor) IsSystem() bool { return a.ID == uuid.Nil && a.Role == "" }

// Initiator maps the actor onto the cancellation initiator tag.
func (a Actor) Initiator() CancellationInitiator {
	switch a.Role {
	case user.RoleCustomer:
		return InitiatorCustomer
	case user.RoleEmployee:
		return InitiatorEmployee
	case user.RoleAdmin:
		return InitiatorAdmin
	default:
		return InitiatorSystem
	}
}

type Rating struct {
	Score    int
	Feedback string
	RatedAt  time.Time
}

func NewRating(score int, feedback string, now time.Time) (Rating, error) {
	if score < 1 || score > 5 {
		return Rating{}, ErrInvalidRating
	}
	feedback = strings.TrimSpace(feedback)
	if len(feedback) > MaxFeedbackLength {
		return Rating{}, ErrFeedbackTooLong
	}
	return Rating{Score: score, Feedback: feedback, RatedAt: now}, nil
}

type Cancellation struct {
	At        time.Time
	By        uuid.UUID
	Reason    string
	Initiator CancellationInitiator
}

type Completion struct {
	At time.Time
	By uuid.UUID
}

// RunningAverage folds score into an average over n ratings, n counting the new one.
func RunningAverage(oldAvg float64, n int, score int) float64 {
	if n <= 0 {
		n = 1
	}
	return (oldAvg*float64(n-1) + float64(score)) / float64(n)
}
