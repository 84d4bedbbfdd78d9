package historyrepo

import (
	"encoding/base64"
	"encoding/json"
	"time"

	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// cursor encodes the resume position of a history listing: the creation
// instant and identifier of the last record on the previous page.
type cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func encodeToken(c cursor) string {
	payload, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(payload)
}

func decodeToken(token string) (cursor, error) {
	payload, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, apperrors.Wrap("invalid_page_token", "page token is not valid", err)
	}
	var c cursor
	if err := json.Unmarshal(payload, &c); err != nil {
		return cursor{}, apperrors.Wrap("invalid_page_token", "page token is not valid", err)
	}
	if c.CreatedAt.IsZero() || c.ID == "" {
		return cursor{}, apperrors.Wrap("invalid_page_token", "page token is not valid", nil)
	}
	return c, nil
}

// clampLimit bounds page sizes to [1,100], defaulting to 10.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
