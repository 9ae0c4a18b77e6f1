package internal_test

import (
	"context"

	"github.com/frahmantamala/hr-portal/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Request identity", func() {
	It("should expose a user id set on a derived context", func() {
		ctx, identity := internal.WithRequestIdentity(context.Background())
		inner := internal.ContextWithUserID(ctx, "7")

		Expect(internal.UserIDFromContext(inner)).To(Equal("7"))
		Expect(identity.UserID()).To(Equal("7"))
		Expect(internal.UserIDFromContext(ctx)).To(Equal("7"))
	})

	It("should stay empty without an authenticated user", func() {
		ctx, identity := internal.WithRequestIdentity(context.Background())
		Expect(identity.UserID()).To(BeEmpty())
		Expect(internal.UserIDFromContext(ctx)).To(BeEmpty())
		Expect(internal.UserIDFromContext(context.Background())).To(BeEmpty())
	})
})
