package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
)

// conversion re-expresses a per-unit rate: a rate per From becomes
// rate * multiply / divide per To.
type conversion struct {
	multiply decimal.Decimal
	divide   decimal.Decimal
}

type unitPair struct {
	from string
	to   string
}

var conversions = map[unitPair]conversion{
	{from: "DOZ", to: "PCS"}: {multiply: decimal.NewFromInt(1), divide: decimal.NewFromInt(12)},
	{from: "PCS", to: "DOZ"}: {multiply: decimal.NewFromInt(12), divide: decimal.NewFromInt(1)},
	{from: "KG", to: "G"}:    {multiply: decimal.NewFromInt(1), divide: decimal.NewFromInt(1000)},
	{from: "G", to: "KG"}:    {multiply: decimal.NewFromInt(1000), divide: decimal.NewFromInt(1)},
	{from: "L", to: "ML"}:    {multiply: decimal.NewFromInt(1), divide: decimal.NewFromInt(1000)},
	{from: "ML", to: "L"}:    {multiply: decimal.NewFromInt(1000), divide: decimal.NewFromInt(1)},
}

func NormalizeUnit(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func SameUnit(a string, b string) bool {
	return NormalizeUnit(a) == NormalizeUnit(b)
}

// CanConvert reports whether a conversion rule exists between two distinct
// units.
func CanConvert(from string, to string) bool {
	_, ok := conversions[unitPair{from: NormalizeUnit(from), to: NormalizeUnit(to)}]
	return ok
}

// ConvertRate re-expresses a per-unit rate in another unit. Unknown pairs
// and identical units leave the rate unchanged.
func ConvertRate(rate domain.Money, from string, to string) domain.Money {
	rule, ok := conversions[unitPair{from: NormalizeUnit(from), to: NormalizeUnit(to)}]
	if !ok {
		return Round2(rate)
	}
	return Round2(rate.Mul(rule.multiply).Div(rule.divide))
}

func DescribeConversion(rate domain.Money, from string, to string) domain.RateConversion {
	return domain.RateConversion{
		Rate:      rate,
		From:      NormalizeUnit(from),
		To:        NormalizeUnit(to),
		Converted: ConvertRate(rate, from, to),
		Known:     CanConvert(from, to),
	}
}
