package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/middleware"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// bindJSON decodes the request body into v. An empty body decodes to the
// zero value so that missing fields are reported per field.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

// pathID parses the :id parameter. Non-numeric ids cannot exist.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errs.ErrNotFound
	}
	return id, nil
}

// Register a new identity
func (api *API) register(c *gin.Context) {
	var reg auth.Registration
	if !bindJSON(c, &reg) {
		return
	}

	user, err := api.auth.Register(c.Request.Context(), reg)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Exchange credentials for a token pair
func (api *API) createToken(c *gin.Context) {
	var creds auth.Credentials
	if !bindJSON(c, &creds) {
		return
	}

	pair, err := api.auth.Login(c.Request.Context(), creds)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Exchange a refresh token for a new pair
func (api *API) refreshToken(c *gin.Context) {
	var req struct {
		Refresh *string `json:"refresh"`
	}
	if !bindJSON(c, &req) {
		return
	}

	pair, err := api.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (api *API) verifyToken(c *gin.Context) {
	var req struct {
		Token *string `json:"token"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := api.auth.VerifyToken(c.Request.Context(), req.Token); err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (api *API) listUsers(c *gin.Context) {
	users, err := api.auth.ListUsers(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}
	if users == nil {
		users = []*models.Identity{}
	}

	c.JSON(http.StatusOK, users)
}

func (api *API) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.IdentityFrom(c))
}

func (api *API) updateMe(c *gin.Context) {
	api.patchProfile(c, middleware.IdentityFrom(c).ID)
}

func (api *API) getUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	user, err := api.auth.GetUser(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (api *API) updateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}
	api.patchProfile(c, id)
}

func (api *API) patchProfile(c *gin.Context, targetID int64) {
	var patch models.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}

	user, err := api.auth.UpdateProfile(c.Request.Context(), middleware.IdentityFrom(c), targetID, patch)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
