package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HCM API",
        "description": "HR backend with multi-level approval workflows",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Employees", "description": "Employee directory"},
        {"name": "Departments", "description": "Organizational units"},
        {"name": "Projects", "description": "Projects and their management chain"},
        {"name": "Leave", "description": "Leave requests"},
        {"name": "Loans", "description": "Employee loan requests"},
        {"name": "Deductions", "description": "Payroll deductions"},
        {"name": "ProjectPayments", "description": "Project disbursements"},
        {"name": "ApprovalChains", "description": "Approval chain rule administration"},
        {"name": "Settings", "description": "Organizational role holders"}
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
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "departmentId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Employees"],
                "summary": "Create employee",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEmployeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Employees"],
                "summary": "Update employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEmployeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Employees"],
                "summary": "Deactivate employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Update department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDepartmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create project",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Get project",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Projects"],
                "summary": "Update project",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leave"],
                "summary": "List leave requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "inbox", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leave"],
                "summary": "Submit leave request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/leaves": {
            "get": {
                "tags": ["Leave"],
                "summary": "Export leave requests as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV content", "schema": {"type": "string"}}
                }
            }
        },
        "/leaves/{id}": {
            "get": {
                "tags": ["Leave"],
                "summary": "Get leave request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/approve": {
            "post": {
                "tags": ["Leave"],
                "summary": "Approve leave request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not current approver", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/reject": {
            "post": {
                "tags": ["Leave"],
                "summary": "Reject leave request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/timeline": {
            "get": {
                "tags": ["Leave"],
                "summary": "Get leave approval timeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans": {
            "get": {
                "tags": ["Loans"],
                "summary": "List loan requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Loans"],
                "summary": "Submit loan request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLoanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans/{id}/approve": {
            "post": {
                "tags": ["Loans"],
                "summary": "Approve loan request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans/{id}/reject": {
            "post": {
                "tags": ["Loans"],
                "summary": "Reject loan request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/loans/{id}/timeline": {
            "get": {
                "tags": ["Loans"],
                "summary": "Get loan approval timeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deductions": {
            "get": {
                "tags": ["Deductions"],
                "summary": "List payroll deductions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Deductions"],
                "summary": "Submit payroll deduction",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDeductionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deductions/{id}/approve": {
            "post": {
                "tags": ["Deductions"],
                "summary": "Approve payroll deduction",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deductions/{id}/reject": {
            "post": {
                "tags": ["Deductions"],
                "summary": "Reject payroll deduction",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deductions/{id}/timeline": {
            "get": {
                "tags": ["Deductions"],
                "summary": "Get deduction approval timeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/project-payments": {
            "get": {
                "tags": ["ProjectPayments"],
                "summary": "List project payments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ProjectPayments"],
                "summary": "Submit project payment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/project-payments/{id}/approve": {
            "post": {
                "tags": ["ProjectPayments"],
                "summary": "Approve project payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/project-payments/{id}/reject": {
            "post": {
                "tags": ["ProjectPayments"],
                "summary": "Reject project payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/project-payments/{id}/timeline": {
            "get": {
                "tags": ["ProjectPayments"],
                "summary": "Get payment approval timeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approval-chains": {
            "get": {
                "tags": ["ApprovalChains"],
                "summary": "List approval chain rules",
                "parameters": [
                    {"name": "requestType", "in": "query", "type": "string"},
                    {"name": "departmentId", "in": "query", "type": "string"},
                    {"name": "projectId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ApprovalChains"],
                "summary": "Create chain rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateChainRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approval-chains/{id}": {
            "get": {
                "tags": ["ApprovalChains"],
                "summary": "Get chain rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["ApprovalChains"],
                "summary": "Update chain rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateChainRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ApprovalChains"],
                "summary": "Deactivate chain rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/settings/role-holders": {
            "get": {
                "tags": ["Settings"],
                "summary": "List organizational role holders",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Assign an organizational role holder",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRoleHolderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "System metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateEmployeeRequest": {
            "type": "object",
            "properties": {
                "nik": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "position": {"type": "string"},
                "department_id": {"type": "string"}
            },
            "required": ["email", "full_name"]
        },
        "UpdateEmployeeRequest": {
            "type": "object",
            "properties": {
                "nik": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "position": {"type": "string"},
                "department_id": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["email", "full_name"]
        },
        "CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "manager_id": {"type": "string"}
            },
            "required": ["code", "name"]
        },
        "UpdateDepartmentRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "manager_id": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["code", "name"]
        },
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "department_id": {"type": "string"},
                "manager_id": {"type": "string"},
                "regional_manager_id": {"type": "string"}
            },
            "required": ["code", "name"]
        },
        "UpdateProjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "department_id": {"type": "string"},
                "manager_id": {"type": "string"},
                "regional_manager_id": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["code", "name"]
        },
        "CreateLeaveRequest": {
            "type": "object",
            "properties": {
                "leave_type": {"type": "string", "enum": ["ANNUAL", "SICK", "UNPAID", "MATERNITY"]},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["leave_type", "start_date", "end_date"]
        },
        "CreateLoanRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "installments": {"type": "integer"},
                "reason": {"type": "string"}
            },
            "required": ["amount", "installments"]
        },
        "CreateDeductionRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "amount": {"type": "number"},
                "reason": {"type": "string"},
                "effective_month": {"type": "string"}
            },
            "required": ["employee_id", "amount", "reason", "effective_month"]
        },
        "CreateProjectPaymentRequest": {
            "type": "object",
            "properties": {
                "project_id": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"}
            },
            "required": ["project_id", "amount"]
        },
        "RejectRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "CreateChainRuleRequest": {
            "type": "object",
            "properties": {
                "request_type": {"type": "string"},
                "department_id": {"type": "string"},
                "project_id": {"type": "string"},
                "level_number": {"type": "integer"},
                "approver_rule": {"type": "string"},
                "approver_employee_id": {"type": "string"},
                "is_final_level": {"type": "boolean"}
            },
            "required": ["request_type", "level_number", "approver_rule"]
        },
        "UpdateChainRuleRequest": {
            "type": "object",
            "properties": {
                "level_number": {"type": "integer"},
                "approver_rule": {"type": "string"},
                "approver_employee_id": {"type": "string"},
                "is_final_level": {"type": "boolean"},
                "active": {"type": "boolean"}
            },
            "required": ["level_number", "approver_rule"]
        },
        "UpdateRoleHolderRequest": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "enum": ["HR_MANAGER", "FINANCE_MANAGER", "GENERAL_MANAGER"]},
                "employee_id": {"type": "string"}
            },
            "required": ["key", "employee_id"]
        },
        "ApprovalTimelineStep": {
            "type": "object",
            "properties": {
                "level_number": {"type": "integer"},
                "level_label": {"type": "string"},
                "approver_id": {"type": "string"},
                "approver_name": {"type": "string"},
                "status": {"type": "string", "enum": ["COMPLETED", "PENDING", "FUTURE", "REJECTED", "SKIPPED"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
