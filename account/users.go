package account

import (
	"crypto/sha256"
	"encoding/hex"
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
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc = CreateUser
	QueryUsersFunc = QueryUsers
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func CreateUser(c *UserCreation, sec *session.Context) (*UserInfo, error) {
	if !sec.Perms.HasRole(authority.SystemAdminPermission.ID) &&
		!sec.Perms.HasRole(authority.TenantSuperAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(userIdWorker), TenantID: sec.Identity.TenantID,
		Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret), RoleID: c.RoleID,
		Active: true, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, TenantID: user.TenantID, Name: user.Name, Nickname: user.Nickname}, nil
}

func QueryUsers(sec *session.Context) (*[]UserInfo, error) {
	var users []UserInfo
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Model(&User{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ?", sec.Identity.TenantID).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Context) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Model(&User{}).Scopes(persistence.LiveRecords).
		Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where("id = ?", user.ID).
		Update("secret", HashSha256(u.NewSecret)).Error
}

// FindLiveUser resolves an active, non-deleted user of the tenant.
func FindLiveUser(db *gorm.DB, tenantId, userId types.ID) (*User, error) {
	user := User{}
	if err := db.Model(&User{}).Scopes(persistence.LiveRecords).
		Where("id = ? AND tenant_id = ?", userId, tenantId).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

func QueryAccountNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	var records []User
	if err := db.Model(&User{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
