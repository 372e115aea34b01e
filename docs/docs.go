// Package docs holds the OpenAPI document of the admin API served at /swagger.
// Keep it in step with the godoc annotations on the controllers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/debug/me": {
			"get": {
				"description": "Get the claims of the calling JWT",
				"produces": [
					"application/json"
				],
				"tags": [
					"debug"
				],
				"summary": "Get current user info",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/records": {
			"get": {
				"description": "List sync checkpoints, optionally filtered by status and direction",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "List sync records",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "pending, success or failed",
						"name": "status",
						"in": "query"
					},
					{
						"type": "string",
						"description": "inbound or outbound",
						"name": "direction",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			},
			"post": {
				"description": "Create a checkpoint; fails when either name already exists",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Create a sync record",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Sync record",
						"name": "record",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/sync.createRecordRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/records/export": {
			"get": {
				"description": "Download every checkpoint as an XLSX workbook",
				"produces": [
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Export sync records",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					}
				}
			}
		},
		"/api/sync/records/reset": {
			"post": {
				"description": "Set every checkpoint to pending and clear last_sync_at",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Reset all sync records",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/records/stats": {
			"get": {
				"description": "Counts by status and direction with oldest and newest sync",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Sync record statistics",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/checkpoint.Stats"
						}
					}
				}
			}
		},
		"/api/sync/records/{id}": {
			"get": {
				"description": "Get one checkpoint by module or integration name",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Get a sync record",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Module or integration name",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/checkpoint.SyncCheckpoint"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			},
			"put": {
				"description": "Apply a partial update; last_sync_at changes only when given or cleared",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Update a sync record",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Module or integration name",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Fields to change",
						"name": "record",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/sync.updateRecordRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			},
			"delete": {
				"description": "Delete one checkpoint",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-records"
				],
				"summary": "Delete a sync record",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Module or integration name",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/schedules": {
			"get": {
				"description": "Every task with its cron schedule, next run and last outcome",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-tasks"
				],
				"summary": "List sync schedules",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/tasks": {
			"get": {
				"description": "List the registered pipelines",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-tasks"
				],
				"summary": "List sync tasks",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/sync/tasks/{name}/run": {
			"post": {
				"description": "Run one pipeline synchronously and return its report",
				"produces": [
					"application/json"
				],
				"tags": [
					"sync-tasks"
				],
				"summary": "Run a sync task",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Task name",
						"name": "name",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"description": "Reports whether the checkpoint store can be read",
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Health check",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		}
	},
	"definitions": {
		"checkpoint.Stats": {
			"type": "object",
			"properties": {
				"by_direction": {
					"type": "object",
					"additionalProperties": {
						"type": "integer"
					}
				},
				"by_status": {
					"type": "object",
					"additionalProperties": {
						"type": "integer"
					}
				},
				"never_synced": {
					"type": "integer"
				},
				"newest_sync_at": {
					"type": "string",
					"format": "date-time"
				},
				"oldest_sync_at": {
					"type": "string",
					"format": "date-time"
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"checkpoint.SyncCheckpoint": {
			"type": "object",
			"properties": {
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"direction": {
					"type": "string",
					"enum": [
						"inbound",
						"outbound"
					]
				},
				"endpoint": {
					"type": "string"
				},
				"integration_name": {
					"type": "string"
				},
				"last_sync_at": {
					"type": "string",
					"format": "date-time"
				},
				"metadata": {
					"type": "object",
					"additionalProperties": true
				},
				"module_name": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"success",
						"failed"
					]
				},
				"updated_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"sync.createRecordRequest": {
			"type": "object",
			"properties": {
				"direction": {
					"type": "string",
					"enum": [
						"inbound",
						"outbound"
					]
				},
				"endpoint": {
					"type": "string"
				},
				"integration_name": {
					"type": "string"
				},
				"metadata": {
					"type": "object",
					"additionalProperties": true
				},
				"module_name": {
					"type": "string"
				}
			}
		},
		"sync.updateRecordRequest": {
			"type": "object",
			"properties": {
				"clear_last_sync_at": {
					"type": "boolean"
				},
				"direction": {
					"type": "string",
					"enum": [
						"inbound",
						"outbound"
					]
				},
				"endpoint": {
					"type": "string"
				},
				"last_sync_at": {
					"type": "string",
					"format": "date-time"
				},
				"metadata": {
					"type": "object",
					"additionalProperties": true
				},
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"success",
						"failed"
					]
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "portal-sync admin API",
	Description:      "Checkpoints, task runs and schedules of the portal sync service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
