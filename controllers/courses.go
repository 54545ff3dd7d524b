package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"yogastore-backend/models"
	"yogastore-backend/services"
	"yogastore-backend/session"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
)

type PurchaseInput struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type CourseController struct {
	catalog   *services.CatalogService
	purchases *services.PurchaseService
}

func NewCourseController(catalog *services.CatalogService, purchases *services.PurchaseService) *CourseController {
	return &CourseController{catalog: catalog, purchases: purchases}
}

func catalogQuery(c *gin.Context) (services.CatalogQuery, bool) {
	class, err := services.ParseClassFilter(c.Query("class"))
	if err != nil {
		respondWithServiceError(c, err)
		return services.CatalogQuery{}, false
	}
	return services.CatalogQuery{Search: c.Query("search"), Class: class}, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// Discover lists courses not yet bought by the caller.
func (cc *CourseController) Discover(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	q, ok := catalogQuery(c)
	if !ok {
		return
	}
	courses, err := cc.catalog.Discover(c.Request.Context(), sess.CustomerID, q)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (cc *CourseController) MyCourses(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	q, ok := catalogQuery(c)
	if !ok {
		return
	}
	courses, err := cc.catalog.MyCourses(c.Request.Context(), sess.CustomerID, q)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (cc *CourseController) GetCourse(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var customerID int64
	if sess := session.FromContext(c); sess != nil {
		customerID = sess.CustomerID
	}
	detail, err := cc.catalog.CourseDetail(c.Request.Context(), customerID, id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Purchase buys the course with the caller's balance. Signed-out callers are
// turned away by the purchase workflow itself.
func (cc *CourseController) Purchase(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = models.CreditCard
	}
	if !input.PaymentMethod.Valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported payment method")
		return
	}

	receipt, err := cc.purchases.Purchase(c.Request.Context(), session.FromContext(c), id, input.PaymentMethod)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Please log in to purchase courses")
			return
		}
		respondWithServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"receipt": receipt})
}
