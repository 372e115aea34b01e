package sync

import (
	"bytes"
	"time"

	"go-portal-sync/internal/common/api"
	"go-portal-sync/internal/features/checkpoint"

	"github.com/gofiber/fiber/v2"
)

type SyncController struct {
	Service SyncService
	Store   *checkpoint.Store
}

func NewSyncController(service SyncService, store *checkpoint.Store) *SyncController {
	return &SyncController{
		Service: service,
		Store:   store,
	}
}

type createRecordRequest struct {
	ModuleName      string               `json:"module_name"`
	IntegrationName string               `json:"integration_name"`
	Direction       checkpoint.Direction `json:"direction"`
	Endpoint        string               `json:"endpoint"`
	Metadata        map[string]any       `json:"metadata"`
}

type updateRecordRequest struct {
	Direction       *checkpoint.Direction `json:"direction"`
	Endpoint        *string               `json:"endpoint"`
	Status          *checkpoint.Status    `json:"status"`
	LastSyncAt      *time.Time            `json:"last_sync_at"`
	ClearLastSyncAt bool                  `json:"clear_last_sync_at"`
	Metadata        map[string]any        `json:"metadata"`
}

// ListRecords godoc
// @Summary      List sync records
// @Description  List sync checkpoints, optionally filtered by status and direction
// @Tags         sync-records
// @Produce      json
// @Param        status     query  string  false  "pending, success or failed"
// @Param        direction  query  string  false  "inbound or outbound"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/sync/records [get]
func (ctrl *SyncController) ListRecords(c *fiber.Ctx) error {
	records, err := ctrl.Store.List(c.Context(), checkpoint.ListFilter{
		Status:    checkpoint.Status(c.Query("status")),
		Direction: checkpoint.Direction(c.Query("direction")),
	})
	if err != nil {
		return api.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"data": records,
	})
}

// GetStats godoc
// @Summary      Sync record statistics
// @Description  Counts by status and direction with oldest and newest sync
// @Tags         sync-records
// @Produce      json
// @Success      200  {object}  checkpoint.Stats
// @Security     BearerAuth
// @Router       /api/sync/records/stats [get]
func (ctrl *SyncController) GetStats(c *fiber.Ctx) error {
	stats, err := ctrl.Store.Stats(c.Context())
	if err != nil {
		return api.Error(c, err)
	}
	return c.JSON(stats)
}

// GetRecord godoc
// @Summary      Get a sync record
// @Description  Get one checkpoint by module or integration name
// @Tags         sync-records
// @Produce      json
// @Param        id  path  string  true  "Module or integration name"
// @Success      200  {object}  checkpoint.SyncCheckpoint
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/sync/records/{id} [get]
func (ctrl *SyncController) GetRecord(c *fiber.Ctx) error {
	rec, err := ctrl.Store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return api.Error(c, err)
	}
	return c.JSON(rec)
}

// CreateRecord godoc
// @Summary      Create a sync record
// @Description  Create a checkpoint; fails when either name already exists
// @Tags         sync-records
// @Produce      json
// @Param        record  body  createRecordRequest  true  "Sync record"
// @Success      201  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/sync/records [post]
func (ctrl *SyncController) CreateRecord(c *fiber.Ctx) error {
	var req createRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rec, err := ctrl.Store.Create(c.Context(), checkpoint.SyncCheckpoint{
		ModuleName:      req.ModuleName,
		IntegrationName: req.IntegrationName,
		Direction:       req.Direction,
		Endpoint:        req.Endpoint,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return api.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sync record created successfully",
		"data":    rec,
	})
}

// UpdateRecord godoc
// @Summary      Update a sync record
// @Description  Apply a partial update; last_sync_at changes only when given or cleared
// @Tags         sync-records
// @Produce      json
// @Param        id      path  string               true  "Module or integration name"
// @Param        record  body  updateRecordRequest  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/sync/records/{id} [put]
func (ctrl *SyncController) UpdateRecord(c *fiber.Ctx) error {
	var req updateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rec, err := ctrl.Store.Update(c.Context(), c.Params("id"), checkpoint.Patch{
		Direction:       req.Direction,
		Endpoint:        req.Endpoint,
		Status:          req.Status,
		LastSyncAt:      req.LastSyncAt,
		ClearLastSyncAt: req.ClearLastSyncAt,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return api.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Sync record updated successfully",
		"data":    rec,
	})
}

// DeleteRecord godoc
// @Summary      Delete a sync record
// @Description  Delete one checkpoint
// @Tags         sync-records
// @Produce      json
// @Param        id  path  string  true  "Module or integration name"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/sync/records/{id} [delete]
func (ctrl *SyncController) DeleteRecord(c *fiber.Ctx) error {
	if err := ctrl.Store.Delete(c.Context(), c.Params("id")); err != nil {
		return api.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Sync record deleted successfully",
	})
}

// ResetRecords godoc
// @Summary      Reset all sync records
// @Description  Set every checkpoint to pending and clear last_sync_at
// @Tags         sync-records
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/sync/records/reset [post]
func (ctrl *SyncController) ResetRecords(c *fiber.Ctx) error {
	n, err := ctrl.Store.ResetAll(c.Context())
	if err != nil {
		return api.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Sync records reset successfully",
		"reset":   n,
	})
}

// ExportRecords godoc
// @Summary      Export sync records
// @Description  Download every checkpoint as an XLSX workbook
// @Tags         sync-records
// @Produce      json
// @Success      200  {file}  file
// @Security     BearerAuth
// @Router       /api/sync/records/export [get]
func (ctrl *SyncController) ExportRecords(c *fiber.Ctx) error {
	records, err := ctrl.Store.List(c.Context(), checkpoint.ListFilter{})
	if err != nil {
		return api.Error(c, err)
	}

	var buf bytes.Buffer
	if err := checkpoint.ExportXLSX(&buf, records); err != nil {
		return api.Error(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="sync_records.xlsx"`)
	return c.Send(buf.Bytes())
}

// ListTasks godoc
// @Summary      List sync tasks
// @Description  List the registered pipelines
// @Tags         sync-tasks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/sync/tasks [get]
func (ctrl *SyncController) ListTasks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": ctrl.Service.Tasks(),
	})
}

// RunTask godoc
// @Summary      Run a sync task
// @Description  Run one pipeline synchronously and return its report
// @Tags         sync-tasks
// @Produce      json
// @Param        name  path  string  true  "Task name"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/sync/tasks/{name}/run [post]
func (ctrl *SyncController) RunTask(c *fiber.Ctx) error {
	report, err := ctrl.Service.RunTask(c.UserContext(), c.Params("name"))
	if err != nil {
		status := api.StatusFor(err)
		body := fiber.Map{"error": err.Error()}
		if report != nil {
			body["data"] = report
		}
		return c.Status(status).JSON(body)
	}

	return c.JSON(fiber.Map{
		"message": "Sync completed",
		"data":    report,
	})
}
