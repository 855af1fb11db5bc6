package httpserver

import (
	"errors"
	"net/http"

	"shopfront/internal/domain"
	orderrepo "shopfront/internal/repository/order"
	ordersvc "shopfront/internal/service/order"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address" binding:"required"`
}

func checkoutHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shipping_address required"})
			return
		}
		order, err := svc.Checkout(c.Request.Context(), currentUser(c).ID, in.ShippingAddress)
		if err != nil {
			switch {
			case errors.Is(err, ordersvc.ErrEmptyCart),
				errors.Is(err, ordersvc.ErrInvalidAddress),
				errors.Is(err, orderrepo.ErrInsufficientStock):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListForUser(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, orders)
	}
}

func getOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.GetForUser(c.Request.Context(), currentUser(c).ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
