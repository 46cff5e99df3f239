package security

import (
	"errors"

	"authkernel/account"
	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/idgen"
	"authkernel/namespace"
	"authkernel/persistence"
	"authkernel/session"
	"authkernel/tenant"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	assignmentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryAccountNamesFunc = account.QueryAccountNames
	QueryProjectNamesFunc = namespace.QueryProjectNames

	CreateAssignmentsFunc = CreateAssignments
	UpdateAssignmentsFunc = UpdateAssignments
	QueryAssignmentsFunc  = QueryAssignments
	DeleteAssignmentFunc  = DeleteAssignment
)

// CreateAssignments is the non-idempotent bulk insert: an entry for a project
// which already has a live assignment fails the whole call with a conflict.
func CreateAssignments(c *authority.AssignmentBatchCreation, sec *session.Context) ([]authority.AssignmentDetail, error) {
	tenantId := sec.Identity.TenantID
	var details []authority.AssignmentDetail

	txErr := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if len(c.Entries) == 0 {
			return &bizerror.ErrBadParam{Cause: errors.New("project role entries must not be empty")}
		}
		if _, err := tenant.FindLiveTenant(tx, tenantId); err != nil {
			return err
		}
		if _, err := account.FindLiveUser(tx, tenantId, c.UserID); err != nil {
			return err
		}
		if err := validateEntryReferences(tx, tenantId, c.Entries); err != nil {
			return err
		}

		inputProjects := inputProjectIdSet(c.Entries)
		processed := map[types.ID]bool{}
		var writtenIds []types.ID

		for _, entry := range c.Entries {
			if len(entry.Roles) == 0 {
				continue
			}

			existing, err := findLiveAssignment(tx, tenantId, c.UserID, entry.ProjectID)
			if err != nil {
				return err
			}
			if existing != nil {
				return bizerror.Conflict("assignment already exists for project %s", entry.ProjectID.String())
			}

			created, err := insertAssignment(tx, tenantId, c.UserID, entry, entry.ProjectID)
			if err != nil {
				return err
			}
			processed[entry.ProjectID] = true
			writtenIds = append(writtenIds, created.ID)

			if entry.Lock {
				mirrored, err := fanOutLockedEntry(tx, tenantId, c.UserID, entry, inputProjects, processed, insertAssignmentIfAbsent)
				if err != nil {
					return err
				}
				writtenIds = append(writtenIds, mirrored...)
			}
		}

		var err error
		details, err = detailAssignmentsByIds(tx, tenantId, writtenIds)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return details, nil
}

// UpdateAssignments is the idempotent reconciliation: it replaces the user's
// entire project-role picture in one call. The final cleanup diffs against the
// originally supplied project id list, so assignments written purely by lock
// fan-out are removed again before the call returns.
func UpdateAssignments(c *authority.AssignmentBatchUpdating, sec *session.Context) ([]authority.AssignmentDetail, error) {
	tenantId := sec.Identity.TenantID
	details := []authority.AssignmentDetail{}

	txErr := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if len(c.Entries) == 0 {
			// revoke all project access
			return softDeleteAssignments(tx, tenantId, c.UserID, nil)
		}

		if _, err := tenant.FindLiveTenant(tx, tenantId); err != nil {
			return err
		}
		if _, err := account.FindLiveUser(tx, tenantId, c.UserID); err != nil {
			return err
		}
		if err := validateEntryReferences(tx, tenantId, c.Entries); err != nil {
			return err
		}

		inputProjects := inputProjectIdSet(c.Entries)
		processed := map[types.ID]bool{}
		var writtenIds []types.ID

		for _, entry := range c.Entries {
			if len(entry.Roles) == 0 {
				continue
			}

			upserted, err := upsertAssignment(tx, tenantId, c.UserID, entry, entry.ProjectID)
			if err != nil {
				return err
			}
			processed[entry.ProjectID] = true
			writtenIds = append(writtenIds, upserted.ID)

			if entry.Lock {
				mirrored, err := fanOutLockedEntry(tx, tenantId, c.UserID, entry, inputProjects, processed, upsertAssignment)
				if err != nil {
					return err
				}
				writtenIds = append(writtenIds, mirrored...)
			}
		}

		// reconciliation cleanup against the input project list
		var keep []types.ID
		for _, entry := range c.Entries {
			keep = append(keep, entry.ProjectID)
		}
		if err := softDeleteAssignments(tx, tenantId, c.UserID, keep); err != nil {
			return err
		}

		var err error
		details, err = detailAssignmentsByIds(tx, tenantId, writtenIds)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return details, nil
}

func QueryAssignments(q *authority.AssignmentQuery, sec *session.Context) ([]authority.AssignmentDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	dbQuery := db.Model(&authority.Assignment{}).Scopes(persistence.NotDeleted).
		Where("tenant_id = ?", sec.Identity.TenantID)
	if q.UserID != nil {
		dbQuery = dbQuery.Where("user_id = ?", q.UserID)
	}
	if q.ProjectID != nil {
		dbQuery = dbQuery.Where("project_id = ?", q.ProjectID)
	}

	var assignments []authority.Assignment
	if err := dbQuery.Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return detailAssignments(db, sec.Identity.TenantID, assignments)
}

func DeleteAssignment(id types.ID, sec *session.Context) error {
	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		a := authority.Assignment{}
		if err := tx.Model(&authority.Assignment{}).Scopes(persistence.NotDeleted).
			Where("id = ? AND tenant_id = ?", id, sec.Identity.TenantID).
			First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.NotFound("assignment")
			}
			return err
		}
		return tx.Model(&authority.Assignment{}).Where("id = ?", a.ID).
			Updates(map[string]interface{}{
				"deleted":     true,
				"update_time": types.CurrentTimestamp(),
			}).Error
	})
}

// validateEntryReferences resolves the union of project ids and role ids
// across all entries. A size mismatch between the requested and resolved sets
// fails, naming whichever collection under-resolved.
func validateEntryReferences(tx *gorm.DB, tenantId types.ID, entries []authority.ProjectRoleEntry) error {
	var projectIds, roleIds []types.ID
	projectSeen := map[types.ID]bool{}
	roleSeen := map[types.ID]bool{}
	for _, entry := range entries {
		if !projectSeen[entry.ProjectID] {
			projectSeen[entry.ProjectID] = true
			projectIds = append(projectIds, entry.ProjectID)
		}
		for _, roleId := range entry.Roles {
			if !roleSeen[roleId] {
				roleSeen[roleId] = true
				roleIds = append(roleIds, roleId)
			}
		}
	}

	projects, err := namespace.QueryLiveProjectsByIds(tx, tenantId, projectIds)
	if err != nil {
		return err
	}
	if len(projects) != len(projectIds) {
		return bizerror.NotFound("project")
	}

	roles, err := findLiveRolesByIds(tx, tenantId, roleIds)
	if err != nil {
		return err
	}
	if len(roles) != len(roleIds) {
		return bizerror.NotFound("role")
	}
	return nil
}

func inputProjectIdSet(entries []authority.ProjectRoleEntry) map[types.ID]bool {
	set := map[types.ID]bool{}
	for _, entry := range entries {
		set[entry.ProjectID] = true
	}
	return set
}

// fanOutLockedEntry mirrors a locked entry's role set and flags onto every
// other live project of the tenant not yet touched in this call. Projects
// explicitly listed in the input are never overwritten by the fan-out.
func fanOutLockedEntry(tx *gorm.DB, tenantId, userId types.ID, entry authority.ProjectRoleEntry,
	inputProjects, processed map[types.ID]bool,
	write func(tx *gorm.DB, tenantId, userId types.ID, entry authority.ProjectRoleEntry, projectId types.ID) (*authority.Assignment, error)) ([]types.ID, error) {

	projects, err := namespace.QueryLiveProjects(tx, tenantId)
	if err != nil {
		return nil, err
	}

	var writtenIds []types.ID
	for _, p := range projects {
		if processed[p.ID] || inputProjects[p.ID] {
			continue
		}
		mirrored, err := write(tx, tenantId, userId, entry, p.ID)
		if err != nil {
			return nil, err
		}
		processed[p.ID] = true
		if mirrored != nil {
			writtenIds = append(writtenIds, mirrored.ID)
		}
	}
	return writtenIds, nil
}

func findLiveAssignment(tx *gorm.DB, tenantId, userId, projectId types.ID) (*authority.Assignment, error) {
	a := authority.Assignment{}
	err := tx.Model(&authority.Assignment{}).Scopes(persistence.NotDeleted).
		Where("tenant_id = ? AND user_id = ? AND project_id = ?", tenantId, userId, projectId).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func insertAssignment(tx *gorm.DB, tenantId, userId types.ID, entry authority.ProjectRoleEntry, projectId types.ID) (*authority.Assignment, error) {
	now := types.CurrentTimestamp()
	a := authority.Assignment{ID: idgen.NextID(assignmentIdWorker),
		TenantID: tenantId, UserID: userId, ProjectID: projectId,
		IsDefault: entry.IsDefault, Disabled: entry.Disabled, Lock: entry.Lock,
		CreateTime: now, UpdateTime: now}
	if err := tx.Create(&a).Error; err != nil {
		return nil, err
	}
	if err := createAssignmentRoleBindings(tx, a.ID, entry.Roles); err != nil {
		return nil, err
	}
	return &a, nil
}

// insertAssignmentIfAbsent writes a fan-out mirror only when the project has
// no live assignment yet. The create path must never overwrite an assignment
// the caller did not list, and a second insert would leave two live rows for
// the same (tenant, user, project).
func insertAssignmentIfAbsent(tx *gorm.DB, tenantId, userId types.ID, entry authority.ProjectRoleEntry, projectId types.ID) (*authority.Assignment, error) {
	existing, err := findLiveAssignment(tx, tenantId, userId, projectId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}
	return insertAssignment(tx, tenantId, userId, entry, projectId)
}

func upsertAssignment(tx *gorm.DB, tenantId, userId types.ID, entry authority.ProjectRoleEntry, projectId types.ID) (*authority.Assignment, error) {
	existing, err := findLiveAssignment(tx, tenantId, userId, projectId)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return insertAssignment(tx, tenantId, userId, entry, projectId)
	}

	if err := tx.Model(&authority.Assignment{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"is_default":  entry.IsDefault,
			"disabled":    entry.Disabled,
			"lock_roles":  entry.Lock,
			"update_time": types.CurrentTimestamp(),
		}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&authority.AssignmentRoleBinding{}, "assignment_id = ?", existing.ID).Error; err != nil {
		return nil, err
	}
	if err := createAssignmentRoleBindings(tx, existing.ID, entry.Roles); err != nil {
		return nil, err
	}
	return existing, nil
}

func createAssignmentRoleBindings(tx *gorm.DB, assignmentId types.ID, roleIds []types.ID) error {
	for _, roleId := range roleIds {
		binding := authority.AssignmentRoleBinding{ID: idgen.NextID(bindingIdWorker),
			AssignmentID: assignmentId, RoleID: roleId}
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
	}
	return nil
}

// softDeleteAssignments soft-deletes the user's live assignments, keeping
// those whose project id is listed in keepProjectIds. A nil keep list deletes
// them all.
func softDeleteAssignments(tx *gorm.DB, tenantId, userId types.ID, keepProjectIds []types.ID) error {
	query := tx.Model(&authority.Assignment{}).
		Where("tenant_id = ? AND user_id = ? AND deleted = ?", tenantId, userId, false)
	if len(keepProjectIds) > 0 {
		query = query.Where("project_id NOT IN (?)", keepProjectIds)
	}
	return query.Updates(map[string]interface{}{
		"deleted":     true,
		"update_time": types.CurrentTimestamp(),
	}).Error
}

func detailAssignmentsByIds(tx *gorm.DB, tenantId types.ID, ids []types.ID) ([]authority.AssignmentDetail, error) {
	if len(ids) == 0 {
		return []authority.AssignmentDetail{}, nil
	}
	var assignments []authority.Assignment
	if err := tx.Model(&authority.Assignment{}).Scopes(persistence.NotDeleted).
		Where("tenant_id = ? AND id IN (?)", tenantId, ids).
		Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return detailAssignments(tx, tenantId, assignments)
}

// detailAssignments resolves role references to full roles, and those roles'
// permission references in turn, assembling flat DTOs with two explicit joins.
func detailAssignments(db *gorm.DB, tenantId types.ID, assignments []authority.Assignment) ([]authority.AssignmentDetail, error) {
	if len(assignments) == 0 {
		return []authority.AssignmentDetail{}, nil
	}

	var assignmentIds []types.ID
	for _, a := range assignments {
		assignmentIds = append(assignmentIds, a.ID)
	}

	var bindings []authority.AssignmentRoleBinding
	if err := db.Model(&authority.AssignmentRoleBinding{}).
		Where("assignment_id IN (?)", assignmentIds).Find(&bindings).Error; err != nil {
		return nil, err
	}

	roleIdsByAssignment := map[types.ID][]types.ID{}
	var roleIds []types.ID
	roleSeen := map[types.ID]bool{}
	for _, b := range bindings {
		roleIdsByAssignment[b.AssignmentID] = append(roleIdsByAssignment[b.AssignmentID], b.RoleID)
		if !roleSeen[b.RoleID] {
			roleSeen[b.RoleID] = true
			roleIds = append(roleIds, b.RoleID)
		}
	}

	roles, err := findLiveRolesByIds(db, tenantId, roleIds)
	if err != nil {
		return nil, err
	}
	roleDetails, err := detailRoles(db, roles)
	if err != nil {
		return nil, err
	}
	roleDetailById := map[types.ID]authority.RoleDetail{}
	for _, rd := range roleDetails {
		roleDetailById[rd.ID] = rd
	}

	var userIds, projectIds []types.ID
	for _, a := range assignments {
		userIds = append(userIds, a.UserID)
		projectIds = append(projectIds, a.ProjectID)
	}
	userNames, err := QueryAccountNamesFunc(userIds)
	if err != nil {
		return nil, err
	}
	projectNames, err := QueryProjectNamesFunc(projectIds)
	if err != nil {
		return nil, err
	}

	details := make([]authority.AssignmentDetail, 0, len(assignments))
	for _, a := range assignments {
		detail := authority.AssignmentDetail{Assignment: a, UserName: "Unknown", ProjectName: "Unknown", Roles: []authority.RoleDetail{}}
		if name, found := userNames[a.UserID]; found {
			detail.UserName = name
		}
		if name, found := projectNames[a.ProjectID]; found {
			detail.ProjectName = name
		}
		for _, roleId := range roleIdsByAssignment[a.ID] {
			if rd, found := roleDetailById[roleId]; found {
				detail.Roles = append(detail.Roles, rd)
			}
		}
		details = append(details, detail)
	}
	return details, nil
}
