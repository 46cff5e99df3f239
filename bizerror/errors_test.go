package bizerror_test

import (
	"net/http"
	"testing"

	"authkernel/bizerror"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestBizerrorSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bizerror Suite")
}

var _ = Describe("Errors", func() {
	Describe("ErrBadParam", func() {
		It("should return default message if cause is nil", func() {
			err := bizerror.ErrBadParam{}
			Expect(err.Error()).To(Equal("common.bad_param"))
		})
		It("should invoke the Error() function of cause property if cause is not nil", func() {
			err := bizerror.ErrBadParam{Cause: bizerror.ErrForbidden}
			Expect(err.Error()).To(Equal("forbidden"))
		})
		It("should respond with status 400 carrying the cause", func() {
			err := bizerror.ErrBadParam{Cause: bizerror.ErrForbidden}
			detail := err.Respond()
			Expect(detail.Status).To(Equal(http.StatusBadRequest))
			Expect(detail.Code).To(Equal("common.bad_param"))
			Expect(detail.Message).To(Equal("forbidden"))
		})
	})

	Describe("ErrNotFound", func() {
		It("should name the unresolved collection", func() {
			err := bizerror.NotFound("role")
			Expect(err.Error()).To(Equal("role not found"))
			Expect(bizerror.NotFound("role")).To(Equal(err))

			detail := err.(*bizerror.ErrNotFound).Respond()
			Expect(detail.Status).To(Equal(http.StatusNotFound))
			Expect(detail.Code).To(Equal("common.record_not_found"))
			Expect(detail.Message).To(Equal("role not found"))
		})
	})

	Describe("ErrConflict", func() {
		It("should carry the formatted message", func() {
			err := bizerror.Conflict("role name %s already exists", "Reviewer")
			Expect(err.Error()).To(Equal("role name Reviewer already exists"))

			detail := err.(*bizerror.ErrConflict).Respond()
			Expect(detail.Status).To(Equal(http.StatusConflict))
			Expect(detail.Code).To(Equal("common.conflict"))
		})
	})
})
