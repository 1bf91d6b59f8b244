package auditlog

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

type Service interface {
	LogAction(ctx context.Context, userID *uint, eventID *uint, action string, details map[string]interface{}, status string) error
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
}

type service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{repo: repo, log: log}
}

type ipKey struct{}

// WithIP returns a context carrying the client address recorded on log entries.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// IPFrom returns the client address stored by WithIP.
func IPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

// LogAction records an audit entry. The entry is best effort: a write
// failure is logged and returned but callers are not expected to abort.
func (s *service) LogAction(ctx context.Context, userID *uint, eventID *uint, action string, details map[string]interface{}, status string) error {
	if details == nil {
		details = make(map[string]interface{})
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := &AuditLog{
		UserID:    userID,
		EventID:   eventID,
		Action:    action,
		Details:   datatypes.JSON(detailsJSON),
		IPAddress: IPFrom(ctx),
		Status:    status,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit log write failed")
		return err
	}
	return nil
}

// GetAuditLogs retrieves paginated audit logs with filters
func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Nop discards every entry. Used where auditing is not wired, such as the sweep command.
type Nop struct{}

func (Nop) LogAction(context.Context, *uint, *uint, string, map[string]interface{}, string) error {
	return nil
}

func (Nop) GetAuditLogs(context.Context, AuditLogFilter) (*PaginatedAuditLogs, error) {
	return &PaginatedAuditLogs{}, nil
}
