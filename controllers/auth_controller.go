package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/college-events-go/middleware"
	"github.com/phillip/college-events-go/services"
)

func Register(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.RegisterInput
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, d, services.ErrBadInput("invalid request body"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := d.Auth.Register(ctx, input)
		if err != nil {
			respondError(c, d, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":   "User registered successfully",
			"token":     res.Token,
			"expiresAt": res.ExpiresAt,
			"user":      res.User,
		})
	}
}

func Login(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.LoginInput
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, d, services.ErrBadInput("invalid request body"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := d.Auth.Login(ctx, input)
		if err != nil {
			respondError(c, d, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "Login successful",
			"token":     res.Token,
			"expiresAt": res.ExpiresAt,
			"user":      res.User,
		})
	}
}

func Me(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		user, err := d.Auth.Me(ctx, middleware.Identity(c))
		if err != nil {
			respondError(c, d, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
