// Package storagetest holds the behaviour every storage.Driver shares, as a
// ginkgo container the driver suites run against their own driver.
package storagetest

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/codeer/pkg/storage"
)

// DescribeDriver registers the shared driver specs. newDriver is called
// before every test and the driver is closed after it.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" driver", func() {
		var (
			driver storage.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = newDriver()
			DeferCleanup(driver.Close)
		})

		Describe("CreateChat", func() {
			It("assigns increasing positive ids", func() {
				first, err := driver.CreateChat(ctx, "first")
				Expect(err).NotTo(HaveOccurred())
				second, err := driver.CreateChat(ctx, "second")
				Expect(err).NotTo(HaveOccurred())

				Expect(first.ID).To(BeNumerically(">", 0))
				Expect(second.ID).To(BeNumerically(">", first.ID))
				Expect(first.Name).To(Equal("first"))
				Expect(first.CreatedAt.IsZero()).To(BeFalse())
			})
		})

		Describe("GetChat", func() {
			It("returns a stored chat", func() {
				created, err := driver.CreateChat(ctx, "hello")
				Expect(err).NotTo(HaveOccurred())

				got, err := driver.GetChat(ctx, created.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.ID).To(Equal(created.ID))
				Expect(got.Name).To(Equal("hello"))
				Expect(got.CreatedAt).To(BeTemporally("~", created.CreatedAt))
			})

			It("returns NotFoundError for an unknown id", func() {
				_, err := driver.GetChat(ctx, 4242)
				Expect(err).To(MatchError(storage.NotFoundError{ID: 4242}))
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})
		})

		Describe("questions", func() {
			It("returns questions in insertion order", func() {
				chat, err := driver.CreateChat(ctx, "ordered")
				Expect(err).NotTo(HaveOccurred())

				Expect(driver.AddQuestion(ctx, chat.ID, "one")).To(Succeed())
				Expect(driver.AddQuestion(ctx, chat.ID, "two")).To(Succeed())
				Expect(driver.AddQuestion(ctx, chat.ID, "three")).To(Succeed())

				qs, err := driver.Questions(ctx, chat.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(qs).To(Equal([]string{"one", "two", "three"}))
			})

			It("keeps chats separate", func() {
				a, err := driver.CreateChat(ctx, "a")
				Expect(err).NotTo(HaveOccurred())
				b, err := driver.CreateChat(ctx, "b")
				Expect(err).NotTo(HaveOccurred())

				Expect(driver.AddQuestion(ctx, a.ID, "for a")).To(Succeed())

				qs, err := driver.Questions(ctx, b.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(qs).To(BeEmpty())
			})

			It("rejects questions for an unknown chat", func() {
				err := driver.AddQuestion(ctx, 4242, "lost")
				Expect(storage.IsNotFound(err)).To(BeTrue())

				_, err = driver.Questions(ctx, 4242)
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})
		})
	})
}
