package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Department Management API",
        "description": "Role-aware administration API for an academic department",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token lifecycle and password flows"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Professors", "description": "Professor roster and teaching assignments"},
        {"name": "Branches", "description": "Academic branches"},
        {"name": "Subjects", "description": "Subjects taught per branch and semester"},
        {"name": "Courses", "description": "Course offerings and enrollments"},
        {"name": "Assignments", "description": "Assignments, submissions and grading"},
        {"name": "Facilities", "description": "Facility booking calendar"},
        {"name": "Notices", "description": "Departmental notices"},
        {"name": "Attendance", "description": "Attendance records"},
        {"name": "Marks", "description": "Exam marks"},
        {"name": "Files", "description": "Signed file downloads"},
        {"name": "Metrics", "description": "Observability"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate account",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Request password reset email",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/reset-password/{token}": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Reset password with emailed token",
                "responses": {
                    "204": {"description": "Password reset"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Duplicate email or scholar number"}
                }
            }
        },
        "/students/import": {
            "post": {
                "tags": ["Students"],
                "summary": "Import roster CSV",
                "responses": {"200": {"description": "Import report"}}
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export roster as CSV or PDF",
                "responses": {"200": {"description": "File"}}
            }
        },
        "/professors": {
            "get": {
                "tags": ["Professors"],
                "summary": "List professors",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Professors"],
                "summary": "Register professor",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/branches": {
            "get": {
                "tags": ["Branches"],
                "summary": "List branches",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Branches"],
                "summary": "Create branch",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate name or code"}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/courses/{id}/enrollments": {
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll student",
                "responses": {
                    "201": {"description": "Enrolled"},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignment with optional attachment",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/assignments/{id}/submissions": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Submit work",
                "responses": {
                    "201": {"description": "Submitted"},
                    "409": {"description": "Already submitted"}
                }
            }
        },
        "/facilities/{id}/bookings": {
            "post": {
                "tags": ["Facilities"],
                "summary": "Book a facility slot",
                "responses": {
                    "201": {"description": "Pending booking created"},
                    "409": {"description": "Slot conflict"}
                }
            }
        },
        "/notices": {
            "get": {
                "tags": ["Notices"],
                "summary": "List visible notices",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Notices"],
                "summary": "Publish notice",
                "responses": {"201": {"description": "Published"}}
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance batch",
                "responses": {"200": {"description": "Recorded"}}
            }
        },
        "/marks": {
            "post": {
                "tags": ["Marks"],
                "summary": "Record exam mark",
                "responses": {"200": {"description": "Recorded"}}
            }
        },
        "/files": {
            "get": {
                "tags": ["Files"],
                "summary": "Download file by signed token",
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "System metrics snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
