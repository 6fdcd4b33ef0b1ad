package driving

import "github.com/nurulhuda/masjid-content/internal/core/domain"

// ShareService formats records into outbound share messages
type ShareService interface {
	Compose(record *domain.Record) *domain.ShareMessage
}
