package main

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/anomaly"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/calculation"
	cycleService "github.com/cmlabs-hris/payroll-backend-go/internal/service/cycle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	cycleRepo := postgresql.NewCycleRepository(db)
	auditRepo := postgresql.NewAuditLogRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)
	checklistRepo := postgresql.NewChecklistRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)
	policyResolver := postgresql.NewPolicyResolver(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	engine := calculation.NewEngine()
	detector := anomaly.NewDetector()
	payrollCycleService := cycleService.NewCycleService(
		db,
		cycleRepo,
		auditRepo,
		payslipRepo,
		employeeDirectory,
		policyResolver,
		checklistRepo,
		engine,
		detector,
		cfg.Payroll.CalcConcurrency,
	)

	cycleHandler := appHTTP.NewCycleHandler(payrollCycleService)

	router := appHTTP.NewRouter(JWTService, cycleHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Println("Starting server on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
