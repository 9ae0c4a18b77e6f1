package attendance_test

import (
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/attendance"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Policy", func() {
	at := func(hour, minute int) time.Time {
		return time.Date(2025, time.March, 3, hour, minute, 0, 0, time.UTC)
	}

	Describe("StatusAt with the clock_minute rule", func() {
		policy := attendance.DefaultPolicy()
		policy.Location = time.UTC

		DescribeTable("classifies check-in times",
			func(hour, minute int, expected string) {
				Expect(policy.StatusAt(at(hour, minute))).To(Equal(expected))
			},
			Entry("before the shift", 8, 59, attendance.StatusPresent),
			Entry("on the hour", 9, 0, attendance.StatusPresent),
			Entry("at the end of grace", 9, 15, attendance.StatusPresent),
			Entry("just past grace", 9, 16, attendance.StatusLate),
			Entry("late in the start hour", 9, 50, attendance.StatusLate),
			Entry("early minutes of a later hour", 10, 5, attendance.StatusPresent),
			Entry("late minutes of a later hour", 14, 30, attendance.StatusLate),
		)
	})

	Describe("StatusAt with the since_shift_start rule", func() {
		policy := attendance.DefaultPolicy()
		policy.Location = time.UTC
		policy.Mode = attendance.LateModeSinceShiftStart

		DescribeTable("classifies check-in times",
			func(hour, minute int, expected string) {
				Expect(policy.StatusAt(at(hour, minute))).To(Equal(expected))
			},
			Entry("before the shift", 8, 59, attendance.StatusPresent),
			Entry("at the end of grace", 9, 15, attendance.StatusPresent),
			Entry("just past grace", 9, 16, attendance.StatusLate),
			Entry("a later hour", 10, 5, attendance.StatusLate),
		)
	})

	Describe("Date", func() {
		It("uses the policy location", func() {
			jakarta, err := time.LoadLocation("Asia/Jakarta")
			Expect(err).NotTo(HaveOccurred())

			policy := attendance.DefaultPolicy()
			policy.Location = jakarta

			// 20:00 UTC is 03:00 the next day in Jakarta
			Expect(policy.Date(time.Date(2025, time.March, 3, 20, 0, 0, 0, time.UTC))).To(Equal("2025-03-04"))
		})
	})

	Describe("PolicyFromConfig", func() {
		It("applies configured values", func() {
			policy, err := attendance.PolicyFromConfig(internal.AttendanceConfig{
				Timezone:    "UTC",
				ShiftStart:  "08:30",
				GracePeriod: 10 * time.Minute,
				LatePolicy:  "since_shift_start",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(policy.ShiftStartHour).To(Equal(8))
			Expect(policy.ShiftStartMinute).To(Equal(30))
			Expect(policy.Grace).To(Equal(10 * time.Minute))
			Expect(policy.Mode).To(Equal(attendance.LateModeSinceShiftStart))
			Expect(policy.StatusAt(at(8, 41))).To(Equal(attendance.StatusLate))
		})

		It("falls back to defaults", func() {
			policy, err := attendance.PolicyFromConfig(internal.AttendanceConfig{})

			Expect(err).NotTo(HaveOccurred())
			Expect(policy.ShiftStartHour).To(Equal(9))
			Expect(policy.Mode).To(Equal(attendance.LateModeClockMinute))
		})

		It("rejects unknown time zones and modes", func() {
			_, err := attendance.PolicyFromConfig(internal.AttendanceConfig{Timezone: "Mars/Olympus"})
			Expect(err).To(HaveOccurred())

			_, err = attendance.PolicyFromConfig(internal.AttendanceConfig{LatePolicy: "strict"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a grace period the clock_minute rule cannot express", func() {
			_, err := attendance.PolicyFromConfig(internal.AttendanceConfig{GracePeriod: time.Hour})
			Expect(err).To(MatchError(ContainSubstring("under one hour")))

			_, err = attendance.PolicyFromConfig(internal.AttendanceConfig{GracePeriod: 90 * time.Second, LatePolicy: "clock_minute"})
			Expect(err).To(MatchError(ContainSubstring("whole minutes")))
		})

		It("allows long or fractional grace when measured from the shift start", func() {
			policy, err := attendance.PolicyFromConfig(internal.AttendanceConfig{
				Timezone:    "UTC",
				GracePeriod: 90 * time.Minute,
				LatePolicy:  "since_shift_start",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(policy.StatusAt(at(10, 29))).To(Equal(attendance.StatusPresent))
			Expect(policy.StatusAt(at(10, 31))).To(Equal(attendance.StatusLate))
		})
	})

	Describe("ParseDate", func() {
		It("accepts calendar dates and rejects anything else", func() {
			d, err := attendance.ParseDate("2025-03-04")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal("2025-03-04"))

			_, err = attendance.ParseDate("04/03/2025")
			Expect(err).To(HaveOccurred())
		})
	})
})
