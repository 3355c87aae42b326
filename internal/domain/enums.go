package domain

// CouponType represents how a coupon computes its discount
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// IsValid checks if the coupon type is valid
func (t CouponType) IsValid() bool {
	switch t {
	case CouponTypePercentage, CouponTypeFixed:
		return true
	default:
		return false
	}
}

// Backend selects where cart blobs are persisted
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendMongo    Backend = "mongo"
)

// IsValid checks if the backend is one the server knows how to open
func (b Backend) IsValid() bool {
	switch b {
	case BackendMemory,
		BackendRedis,
		BackendPostgres,
		BackendSQLite,
		BackendMongo:
		return true
	default:
		return false
	}
}
