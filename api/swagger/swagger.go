package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Beacon Attendance API",
        "description": "BLE proximity attendance determination pipeline",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scans", "description": "Device scan ingestion"},
        {"name": "Rounds", "description": "Round calculation and results"},
        {"name": "Attendance", "description": "Session-level attendance"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/scans": {
            "post": {
                "tags": ["Scans"],
                "summary": "Submit a BLE scan report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitScanDataRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session not active", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rounds/{id}/calculate": {
            "post": {
                "tags": ["Rounds"],
                "summary": "Request a round's attendance calculation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateRoundAttendanceRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rounds/{id}/result": {
            "get": {
                "tags": ["Rounds"],
                "summary": "Read a round's attendance result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Final attendance for every enrolled student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/attendance/students/{studentId}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "One student's final attendance with per-round breakdown",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/attendance/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Export the session attendance sheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "NearbyDevice": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "rssi": {"type": "integer"}
            },
            "required": ["device_id"]
        },
        "SubmitScanDataRequest": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "device_id": {"type": "string"},
                "submitter_user_id": {"type": "string"},
                "session_id": {"type": "string"},
                "rssi_data": {"type": "integer"},
                "nearby_devices": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/NearbyDevice"}
                },
                "timestamp": {"type": "string"}
            },
            "required": ["request_id", "device_id", "submitter_user_id", "session_id"]
        },
        "CalculateRoundAttendanceRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "round_id": {"type": "string"}
            },
            "required": ["session_id"]
        },
        "StudentAttendance": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "full_name": {"type": "string"},
                "is_attended": {"type": "boolean"},
                "attended_time": {"type": "string"}
            }
        },
        "RoundResult": {
            "type": "object",
            "properties": {
                "round_id": {"type": "string"},
                "round_number": {"type": "integer"},
                "status": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "students_attendance": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/StudentAttendance"}
                }
            }
        },
        "FinalAttendance": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "full_name": {"type": "string"},
                "enrollment_id": {"type": "string"},
                "total_rounds": {"type": "integer"},
                "attended_rounds_count": {"type": "integer"},
                "missed_rounds_count": {"type": "integer"},
                "attendance_percentage": {"type": "number"},
                "status": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
