package domain

import (
	"strings"

	"github.com/joinsangha/storefront/pkg/apperr"
)

var (
	ErrMissingPostID = apperr.Validation("postId", "Post ID is required")
	ErrMissingAction = apperr.Validation("action", "Post ID and action are required")
	ErrInvalidAction = apperr.Validation("action", `Action must be "like" or "unlike"`)
)

// ViewIncrement is added per recorded view. Page renders fire the view
// tracker twice, so each render counts as one full view.
const ViewIncrement = 0.5

// Stats is the engagement record of one blog post.
type Stats struct {
	Views float64 `json:"views"`
	Likes int64   `json:"likes"`
}

type Action string

const (
	ActionLike   Action = "like"
	ActionUnlike Action = "unlike"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionLike, ActionUnlike:
		return a, nil
	case "":
		return "", ErrMissingAction
	default:
		return "", ErrInvalidAction
	}
}

// Delta is the likes change the action applies before the zero floor.
func (a Action) Delta() int64 {
	if a == ActionUnlike {
		return -1
	}
	return 1
}
