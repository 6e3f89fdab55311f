package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GenerateCertificate issues the user's certificate for a passed run. The
// operation is idempotent: repeated calls return the existing certificate.
func GenerateCertificate(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	runSlug := c.Locals("runSlug").(string)
	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	if err := models.VerifyRunAccess(db, run, user); err != nil {
		return accessErrorResponse(c, runSlug, err)
	}

	passed, err := models.Passed(db, run, user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to evaluate course completion!", nil)
	}
	if !passed {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You have not finished all required submissions yet!", nil)
	}

	certificate, created, err := models.GenerateCertificate(db, run, user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate certificate!", nil)
	}

	if created {
		prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
		if err == nil {
			utils.SendCertificateEmail(user.Email, user.Name, run.Title, certificate.UUID, prefix)
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate generated successfully!", certificate)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate already exists!", certificate)
}

// GetUserCertificates lists the user's certificates.
func GetUserCertificates(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var certificates []models.Certificate
	if err := db.Where("user_id = ?", user.ID).Order("created_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certificates)
}

// GetCertificate looks up a certificate by its public UUID, e.g. for
// employer verification.
func GetCertificate(c *fiber.Ctx) error {
	db := database.Database.Db
	certUUID := c.Locals("certificateUUID").(string)

	var certificate models.Certificate
	if err := db.Where("uuid = ?", certUUID).First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}

	var run models.Run
	if err := db.First(&run, certificate.RunID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", fiber.Map{
		"certificate": certificate,
		"run":         run,
	})
}
