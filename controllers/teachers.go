package controllers

import (
	"net/http"

	"yogastore-backend/services"

	"github.com/gin-gonic/gin"
)

type TeacherController struct {
	catalog *services.CatalogService
}

func NewTeacherController(catalog *services.CatalogService) *TeacherController {
	return &TeacherController{catalog: catalog}
}

func (tc *TeacherController) GetTeachers(c *gin.Context) {
	teachers, err := tc.catalog.Teachers(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

func (tc *TeacherController) GetTeacher(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	teacher, err := tc.catalog.Teacher(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacher)
}
