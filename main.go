package main

import (
	"log"
	"net/http"

	"authkernel/account"
	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/infra/tracing"
	"authkernel/namespace"
	"authkernel/persistence"
	"authkernel/security"
	"authkernel/servehttp"
	"authkernel/session"
	"authkernel/sessions"
	"authkernel/tenant"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&tenant.Tenant{}, &account.User{}, &namespace.Project{},
		&authority.Permission{}, &authority.Role{}, &authority.RolePermissionBinding{},
		&authority.Assignment{}, &authority.AssignmentRoleBinding{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := security.DefaultAuthorityConfiguration(); err != nil {
		log.Fatalf("authority bootstrap failed %v\n", err)
	}

	tracerCloser, err := tracing.SetupTracer()
	if err != nil {
		log.Fatalf("tracer setup failed %v\n", err)
	}
	defer tracerCloser.Close()

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "authkernel")
	})

	sessions.RegisterSessionsHandler(engine)
	sessions.RegisterSessionHandler(engine, session.SimpleAuthFilter())

	security.RegisterPermissionsRestAPI(engine, session.SimpleAuthFilter(), security.CheckPermissions())
	security.RegisterRolesRestAPI(engine, session.SimpleAuthFilter(),
		security.CheckPermissions(authority.SystemAdminPermission.ID, authority.RoleManagePermission.ID))
	security.RegisterAssignmentsRestAPI(engine, session.SimpleAuthFilter(),
		security.CheckPermissions(authority.SystemAdminPermission.ID, authority.MemberManagePermission.ID))

	servehttp.StartHTTPServer(engine)
}
