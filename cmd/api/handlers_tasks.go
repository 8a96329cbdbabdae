package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/middleware"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/tasks"
)

// List tasks visible to the caller
func (api *API) listTasks(c *gin.Context) {
	page, err := api.tasks.List(c.Request.Context(), middleware.IdentityFrom(c), tasks.ListQuery{
		Status:   c.Query("status"),
		Page:     c.Query("page"),
		PageSize: c.Query("page_size"),
	})
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, page))
}

// Create a task owned by the caller
func (api *API) createTask(c *gin.Context) {
	var in tasks.Input
	if !bindJSON(c, &in) {
		return
	}

	task, err := api.tasks.Create(c.Request.Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (api *API) getTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	task, err := api.tasks.Get(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (api *API) updateTask(c *gin.Context) {
	api.writeTask(c, false)
}

func (api *API) partialUpdateTask(c *gin.Context) {
	api.writeTask(c, true)
}

func (api *API) writeTask(c *gin.Context, partial bool) {
	id, err := pathID(c)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	var in tasks.Input
	if !bindJSON(c, &in) {
		return
	}

	task, err := api.tasks.Update(c.Request.Context(), middleware.IdentityFrom(c), id, in, partial)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (api *API) deleteTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	if err := api.tasks.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		middleware.RespondError(c, api.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
