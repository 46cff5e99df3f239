package namespace

import (
	"errors"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/idgen"
	"authkernel/persistence"
	"authkernel/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	projectIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateProjectFunc = CreateProject
	QueryProjectsFunc = QueryProjects
)

func CreateProject(c *ProjectCreation, sec *session.Context) (*Project, error) {
	if !sec.Perms.HasRole(authority.SystemAdminPermission.ID) &&
		!sec.Perms.HasRole(authority.TenantSuperAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	p := Project{ID: idgen.NextID(projectIdWorker), TenantID: sec.Identity.TenantID,
		Name: c.Name, Identifier: c.Identifier,
		Active: true, Creator: sec.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func QueryProjects(sec *session.Context) (*[]Project, error) {
	var projects []Project
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Model(&Project{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ?", sec.Identity.TenantID).Find(&projects).Error; err != nil {
		return nil, err
	}
	return &projects, nil
}

// FindLiveProject resolves an active, non-deleted project of the tenant.
func FindLiveProject(db *gorm.DB, tenantId, id types.ID) (*Project, error) {
	p := Project{}
	if err := db.Model(&Project{}).Scopes(persistence.LiveRecords).
		Where("id = ? AND tenant_id = ?", id, tenantId).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("project")
		}
		return nil, err
	}
	return &p, nil
}

// QueryLiveProjectsByIds resolves the given ids to live projects of the tenant.
// Callers compare result size with the requested set to detect missing ones.
func QueryLiveProjectsByIds(db *gorm.DB, tenantId types.ID, ids []types.ID) ([]Project, error) {
	if len(ids) == 0 {
		return []Project{}, nil
	}
	var projects []Project
	if err := db.Model(&Project{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ? AND id IN (?)", tenantId, ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// QueryLiveProjects lists every live project of the tenant, the enumeration
// used by the lock fan-out of assignment writes.
func QueryLiveProjects(db *gorm.DB, tenantId types.ID) ([]Project, error) {
	var projects []Project
	if err := db.Model(&Project{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ?", tenantId).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func QueryProjectNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	var records []Project
	if err := db.Model(&Project{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
