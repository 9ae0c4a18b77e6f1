package hrapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/attendance"
	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/internal/userrole"
)

// LookupRole reads the caller's row in the role table. The server resolves
// the row from the access token, so userID only guards against asking on
// behalf of somebody else.
func (c *Client) LookupRole(ctx context.Context, userID string) (string, error) {
	if err := c.ensureUser(ctx, userID); err != nil {
		return "", err
	}

	var assignment userrole.Assignment
	err := c.authorized(ctx, request{method: http.MethodGet, path: "/user-roles/me"}, &assignment)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			switch apiErr.Code {
			case string(internal.ErrCodeRoleTableMissing):
				return "", portal.ErrRoleTableMissing
			case string(internal.ErrCodeRoleNotFound):
				return "", portal.ErrRoleNotFound
			}
		}
		return "", err
	}
	return assignment.Role, nil
}

// SelectToday returns the caller's record for date, or nil.
func (c *Client) SelectToday(ctx context.Context, userID, date string) (*attendance.Record, error) {
	if err := c.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var today attendance.TodayResponse
	if err := c.authorized(ctx, request{method: http.MethodGet, path: "/attendance/today"}, &today); err != nil {
		return nil, err
	}
	if today.Record == nil {
		return nil, nil
	}
	if today.Record.Date != date {
		c.logger.Debug("server day differs from requested day", "requested", date, "server", today.Record.Date)
		return nil, nil
	}
	return today.Record, nil
}

// Insert creates today's record. The server stamps the check-in time and
// status from its own clock.
func (c *Client) Insert(ctx context.Context, record *attendance.Record) (*attendance.Record, error) {
	var created attendance.Record
	err := c.authorized(ctx, request{method: http.MethodPost, path: "/attendance/check-in"}, &created)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.StatusCode == http.StatusConflict &&
			apiErr.DBCode() == internal.DBCodeUniqueViolation {
			return nil, portal.ErrUniqueViolation
		}
		return nil, err
	}
	if record != nil && record.Status != "" && record.Status != created.Status {
		c.logger.Debug("server status differs from local status", "local", record.Status, "server", created.Status)
	}
	return &created, nil
}

// UpdateCheckOut closes recordID. The timestamp is assigned by the server.
func (c *Client) UpdateCheckOut(ctx context.Context, recordID int64, at time.Time) (*attendance.Record, error) {
	var updated attendance.Record
	err := c.authorized(ctx, request{
		method: http.MethodPost,
		path:   "/attendance/check-out",
		body:   attendance.CheckOutDTO{RecordID: recordID},
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) ensureUser(ctx context.Context, userID string) error {
	session, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return portal.ErrNoSession
	}
	if userID != "" && session.User.ID != userID {
		return fmt.Errorf("session belongs to user %s, not %s", session.User.ID, userID)
	}
	return nil
}
