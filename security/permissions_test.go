package security_test

import (
	"testing"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/persistence"
	"authkernel/security"
	"authkernel/testinfra"

	. "github.com/onsi/gomega"
)

func TestFindPermission(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("well known permissions are resolvable after bootstrap", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		p, err := security.FindPermission(authority.RoleManagePermission.ID)
		Expect(err).To(BeNil())
		Expect(p.ID).To(Equal("role:manage"))
		Expect(p.Title).To(Equal("Role Management"))
		Expect(p.Active).To(BeTrue())
	})

	t.Run("unknown or deactivated keys must not resolve", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := security.FindPermission("no-such:permission")
		Expect(err).To(Equal(bizerror.NotFound("permission")))

		db := persistence.ActiveDataSourceManager.GormDB()
		Expect(db.Model(&authority.Permission{}).Where("id = ?", authority.BillingViewPermission.ID).
			Update("active", false).Error).To(BeNil())
		_, err = security.FindPermission(authority.BillingViewPermission.ID)
		Expect(err).To(Equal(bizerror.NotFound("permission")))
	})
}

func TestQueryPermissions(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("query lists active permissions ordered by key", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		perms, err := security.QueryPermissions()
		Expect(err).To(BeNil())
		Expect(len(perms)).To(Equal(len(authority.WellKnownPermissions)))
		for i := 1; i < len(perms); i++ {
			Expect(perms[i-1].ID < perms[i].ID).To(BeTrue())
		}

		db := persistence.ActiveDataSourceManager.GormDB()
		Expect(db.Model(&authority.Permission{}).Where("id = ?", authority.BillingViewPermission.ID).
			Update("active", false).Error).To(BeNil())
		perms, err = security.QueryPermissions()
		Expect(err).To(BeNil())
		Expect(len(perms)).To(Equal(len(authority.WellKnownPermissions) - 1))
		for _, p := range perms {
			Expect(p.ID).ToNot(Equal(authority.BillingViewPermission.ID))
		}
	})
}
