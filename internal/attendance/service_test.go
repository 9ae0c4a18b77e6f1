package attendance_test

import (
	"context"
	"sync"
	"time"

	"github.com/frahmantamala/hr-portal/internal/attendance"
	attendancePostgres "github.com/frahmantamala/hr-portal/internal/attendance/postgres"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var _ = Describe("Attendance Service", func() {
	var (
		ctx       context.Context
		repo      *attendancePostgres.AttendanceRepository
		service   *attendance.Service
		publisher *recordingPublisher
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = attendancePostgres.NewAttendanceRepository(newTestDB())
		publisher = &recordingPublisher{}

		policy := attendance.DefaultPolicy()
		policy.Location = time.UTC
		now = time.Date(2025, time.March, 3, 8, 59, 0, 0, time.UTC)

		service = attendance.NewService(repo, policy, publisher, logger.Discard()).
			WithClock(func() time.Time { return now })
	})

	Describe("Today", func() {
		It("returns no record before the first check-in", func() {
			date, record, err := service.Today(ctx, 7)

			Expect(err).NotTo(HaveOccurred())
			Expect(date).To(Equal("2025-03-03"))
			Expect(record).To(BeNil())
		})

		It("returns the record after checking in", func() {
			_, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			_, record, err := service.Today(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
			Expect(record.CheckedIn()).To(BeTrue())
		})
	})

	Describe("CheckIn", func() {
		It("records an on-time check-in as present", func() {
			record, err := service.CheckIn(ctx, 7)

			Expect(err).NotTo(HaveOccurred())
			Expect(record.ID).To(BeNumerically(">", 0))
			Expect(record.Status).To(Equal(attendance.StatusPresent))
			Expect(record.Date).To(Equal("2025-03-03"))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeAttendanceCheckedIn))
		})

		It("records a check-in after the grace period as late", func() {
			now = time.Date(2025, time.March, 3, 9, 16, 0, 0, time.UTC)

			record, err := service.CheckIn(ctx, 7)

			Expect(err).NotTo(HaveOccurred())
			Expect(record.Status).To(Equal(attendance.StatusLate))
		})

		It("rejects a second check-in on the same day without a second record", func() {
			_, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(2 * time.Hour)
			_, err = service.CheckIn(ctx, 7)
			Expect(err).To(MatchError(attendance.ErrAlreadyCheckedIn))

			records, err := repo.ListByDate(ctx, "2025-03-03", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("allows a new check-in the next day", func() {
			_, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			now = now.AddDate(0, 0, 1)
			record, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Date).To(Equal("2025-03-04"))
		})
	})

	Describe("CheckOut", func() {
		It("fails without an open check-in", func() {
			_, err := service.CheckOut(ctx, 7, 0)

			Expect(err).To(MatchError(attendance.ErrNoOpenCheckIn))
		})

		It("closes today's record once", func() {
			in, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(8 * time.Hour)
			out, err := service.CheckOut(ctx, 7, in.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CheckedOut()).To(BeTrue())
			Expect(out.CheckOut.Equal(now)).To(BeTrue())

			_, err = service.CheckOut(ctx, 7, in.ID)
			Expect(err).To(MatchError(attendance.ErrNoOpenCheckIn))

			Expect(publisher.types()).To(ConsistOf(
				events.EventTypeAttendanceCheckedIn,
				events.EventTypeAttendanceCheckedOut,
			))
		})

		It("refuses to close a record that is not today's", func() {
			_, err := service.CheckIn(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CheckOut(ctx, 7, 9999)
			Expect(err).To(MatchError(attendance.ErrNoOpenCheckIn))
		})
	})

	Describe("ListByDate", func() {
		It("defaults to today and returns every user's record", func() {
			for _, id := range []int64{1, 2, 3} {
				_, err := service.CheckIn(ctx, id)
				Expect(err).NotTo(HaveOccurred())
			}

			date, records, err := service.ListByDate(ctx, "", 50, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(date).To(Equal("2025-03-03"))
			Expect(records).To(HaveLen(3))
		})

		It("honours limit and offset", func() {
			for _, id := range []int64{1, 2, 3} {
				_, err := service.CheckIn(ctx, id)
				Expect(err).NotTo(HaveOccurred())
			}

			_, records, err := service.ListByDate(ctx, "2025-03-03", 2, 2)

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})
	})
})
