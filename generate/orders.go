package generate

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	c "github.com/dmaitland/salespipe/constants"
)

// Order is one synthetic sales order destined for the warehouse orders table.
type Order struct {
	OrderId      int       // 1-based sequence within the batch.
	CustomerName string    // synthesized full name; not unique.
	OrderAmount  float64   // in [10.00, 1000.00], 2 decimal places.
	OrderDate    time.Time // calendar date within the last 30 days inclusive of today.
	Product      string    // single synthesized word token.
}

// Generator produces batches of synthetic orders.
// The zero value is not usable; construct via NewGenerator or NewSeededGenerator.
type Generator struct {
	faker *gofakeit.Faker
	rnd   *rand.Rand
	now   func() time.Time
}

func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a Generator whose output is reproducible for a given seed.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		rnd:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// Orders returns numOrders synthetic orders with OrderId forming the exact sequence 1..numOrders.
func (g *Generator) Orders(numOrders int) []Order {
	today := truncateToDate(g.now())
	orders := make([]Order, 0, numOrders)
	for idx := 1; idx <= numOrders; idx++ { // for each order...
		orders = append(orders, Order{
			OrderId:      idx,
			CustomerName: g.faker.Name(),
			OrderAmount:  roundMoney(c.OrderAmountMin + g.rnd.Float64()*(c.OrderAmountMax-c.OrderAmountMin)),
			OrderDate:    today.AddDate(0, 0, -g.rnd.Intn(c.OrderDateWindowDays+1)),
			Product:      g.faker.Word(),
		})
	}
	return orders
}

// WriteCSV serializes orders to w with a header row, dates in calendar-date
// form and amounts with exactly 2 decimal places.
func WriteCSV(w io.Writer, orders []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.OrderCsvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		if err := cw.Write(o.CsvRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvRow renders the order fields in the header's column order.
func (o Order) CsvRow() []string {
	return []string{
		strconv.Itoa(o.OrderId),
		o.CustomerName,
		FormatAmount(o.OrderAmount),
		o.OrderDate.Format(c.TimeFormatCalendarDate),
		o.Product,
	}
}

// FormatAmount renders an order amount with exactly 2 decimal places.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
