package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
	"companion-booking-backend/internal/pricing"
)

// newQuoteCmd prices a booking offline with the same engine the API uses.
func newQuoteCmd() *cobra.Command {
	var (
		serviceType string
		hours       string
		date        string
		clock       string
		distance    string
		discount    string
		timezone    string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the price breakdown of a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			engine := pricing.NewEngine(time.Now, loc)

			in := pricing.Input{}
			if in.ServiceType, err = model.ParseServiceType(serviceType); err != nil {
				return err
			}
			if date == "" {
				date = engine.Today().Format(parse.DateLayout)
			}
			if in.Date, err = parse.ParseDate(date, loc); err != nil {
				return err
			}
			if in.Time, err = parse.ParseClock(clock); err != nil {
				return err
			}
			for _, f := range []struct {
				name string
				raw  string
				dst  *decimal.Decimal
			}{
				{"hours", hours, &in.Hours},
				{"distance", distance, &in.DistanceKm},
				{"discount", discount, &in.Discount},
			} {
				if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
					return fmt.Errorf("invalid --%s: %w", f.name, err)
				}
			}

			b, err := engine.Quote(in)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, row := range []struct {
				label string
				v     decimal.Decimal
			}{
				{"base", b.Base},
				{"distance", b.Distance},
				{"urgency", b.Urgency},
				{"night/weekend", b.NightWeekend},
				{"subtotal", b.Subtotal},
				{"discount", b.Discount.Neg()},
				{"total", b.Total},
			} {
				fmt.Fprintf(w, "%s\t%s\t\n", row.label, row.v.StringFixed(0))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&serviceType, "service", string(model.ServiceHospitalCare), "full_care, hospital_care or special_care")
	cmd.Flags().StringVar(&hours, "hours", "2", "estimated hours")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (today when empty)")
	cmd.Flags().StringVar(&clock, "time", "10:00", "HH:MM start time")
	cmd.Flags().StringVar(&distance, "distance", "0", "distance in km")
	cmd.Flags().StringVar(&discount, "discount", "0", "discount in won")
	cmd.Flags().StringVar(&timezone, "tz", "Asia/Seoul", "business time zone")
	return cmd
}
