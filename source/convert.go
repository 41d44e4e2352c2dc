package source

import (
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/shopspring/decimal"
)

// Convert normalizes driver-specific values so they load cleanly on any
// destination. SQL Server returns DECIMAL/NUMERIC/MONEY as ASCII bytes
// and UNIQUEIDENTIFIER in a mixed-endian binary form; both need fixing
// before they can be bound as insert parameters elsewhere.
func Convert(value any, dataType string) any {
	if value == nil {
		return nil
	}

	upper := strings.ToUpper(dataType)

	switch v := value.(type) {
	case mssql.UniqueIdentifier:
		return strings.ToLower(v.String())
	case []byte:
		if strings.Contains(upper, "UNIQUEIDENTIFIER") && len(v) == 16 {
			var uid mssql.UniqueIdentifier
			if err := uid.Scan(v); err == nil {
				return strings.ToLower(uid.String())
			}
			return v
		}
		if strings.Contains(upper, "DECIMAL") ||
			strings.Contains(upper, "NUMERIC") ||
			strings.Contains(upper, "MONEY") {
			if d, err := decimal.NewFromString(string(v)); err == nil {
				return d
			}
			return v
		}
		return v
	default:
		return value
	}
}
