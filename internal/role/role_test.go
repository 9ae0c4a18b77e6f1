package role_test

import (
	"testing"

	"github.com/frahmantamala/hr-portal/internal/portal/store"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

var _ = Describe("NormalizeRoleValue", func() {
	DescribeTable("maps aliases onto canonical roles",
		func(raw, expected string) {
			Expect(role.NormalizeRoleValue(raw)).To(Equal(expected))
		},
		Entry("HR", "HR", role.HRManager),
		Entry("hr", "hr", role.HRManager),
		Entry("HR_MANAGER", "HR_MANAGER", role.HRManager),
		Entry("hr_manager", "hr_manager", role.HRManager),
		Entry("MANAGER", "MANAGER", role.LineManager),
		Entry("Line_Manager", "Line_Manager", role.LineManager),
		Entry("ADMIN", "ADMIN", role.Admin),
		Entry("padded employee", "  Employee ", role.Employee),
	)

	It("should be idempotent", func() {
		for _, raw := range []string{"HR", "manager", "ADMIN", "employee", "contractor"} {
			once := role.NormalizeRoleValue(raw)
			Expect(role.NormalizeRoleValue(once)).To(Equal(once))
		}
	})

	It("should return unrecognised input unchanged", func() {
		Expect(role.NormalizeRoleValue("Contractor")).To(Equal("Contractor"))
		Expect(role.NormalizeRoleValue("")).To(Equal(""))
	})
})

var _ = Describe("RedirectPath", func() {
	It("should map every canonical role to its portal", func() {
		Expect(role.RedirectPath(role.Admin)).To(Equal("/admin/dashboard"))
		Expect(role.RedirectPath(role.HRManager)).To(Equal("/hr/dashboard"))
		Expect(role.RedirectPath(role.LineManager)).To(Equal("/manager/dashboard"))
		Expect(role.RedirectPath(role.Employee)).To(Equal("/employee/dashboard"))
	})

	It("should send anything else to the sign-in page", func() {
		for _, r := range []string{"", "HR", "contractor", "Admin"} {
			Expect(role.RedirectPath(r)).To(Equal(role.LoginPath))
		}
	})

	It("should never return an empty path", func() {
		for _, r := range append(role.Canonical(), "", "unknown") {
			Expect(role.RedirectPath(r)).NotTo(BeEmpty())
		}
	})
})

var _ = Describe("Cache", func() {
	var (
		kv    *store.Memory
		cache *role.Cache
	)

	BeforeEach(func() {
		kv = store.NewMemory()
		cache = role.NewCache(kv, logger.Discard())
	})

	It("should return the role for its owner", func() {
		Expect(cache.Set(role.HRManager, "u-1")).To(Succeed())

		r, ok := cache.Get("u-1")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(role.HRManager))
	})

	It("should refuse and clear a role owned by another user", func() {
		Expect(cache.Set(role.Admin, "u-1")).To(Succeed())

		r, ok := cache.Get("u-2")
		Expect(ok).To(BeFalse())
		Expect(r).To(BeEmpty())

		_, ok = cache.Get("u-1")
		Expect(ok).To(BeFalse())
	})

	It("should peek without checking the owner", func() {
		Expect(cache.Set(role.Employee, "u-1")).To(Succeed())
		Expect(cache.Peek()).To(Equal(role.Employee))
	})

	It("should keep the table-missing sentinel across clears", func() {
		Expect(cache.TableMissing()).To(BeFalse())
		Expect(cache.MarkTableMissing()).To(Succeed())
		Expect(cache.Set(role.Admin, "u-1")).To(Succeed())

		Expect(cache.Clear()).To(Succeed())

		Expect(cache.TableMissing()).To(BeTrue())
		Expect(cache.Peek()).To(BeEmpty())
	})
})

var _ = Describe("ResolveUserRole", func() {
	var cache *role.Cache

	BeforeEach(func() {
		cache = role.NewCache(store.NewMemory(), logger.Discard())
	})

	It("should prefer token metadata over the cached role", func() {
		Expect(cache.Set(role.Employee, "u-1")).To(Succeed())

		r, ok := role.ResolveUserRole(role.Identity{
			UserID:      "u-1",
			AppMetadata: map[string]any{"role": "HR_MANAGER"},
		}, cache)

		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(role.HRManager))
	})

	It("should check user metadata before app metadata", func() {
		r, ok := role.ResolveUserRole(role.Identity{
			UserID:       "u-1",
			UserMetadata: map[string]any{"role": "manager"},
			AppMetadata:  map[string]any{"role": "admin"},
		}, cache)

		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(role.LineManager))
	})

	It("should fall back to the cached role of the same user", func() {
		Expect(cache.Set(role.Admin, "u-1")).To(Succeed())

		r, ok := role.ResolveUserRole(role.Identity{UserID: "u-1"}, cache)
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(role.Admin))
	})

	It("should ignore a cached role owned by another user", func() {
		Expect(cache.Set(role.Admin, "u-1")).To(Succeed())

		r, ok := role.ResolveUserRole(role.Identity{UserID: "u-2"}, cache)
		Expect(ok).To(BeFalse())
		Expect(r).To(BeEmpty())
	})

	It("should ignore non-string metadata values", func() {
		r, ok := role.ResolveUserRole(role.Identity{
			UserID:      "u-1",
			AppMetadata: map[string]any{"role": 42},
		}, cache)
		Expect(ok).To(BeFalse())
		Expect(r).To(BeEmpty())
	})
})
