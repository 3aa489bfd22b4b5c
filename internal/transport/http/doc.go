// Package http implements the HTTP handlers of the analysis API. Handlers
// stay thin: they parse and validate the query, call the service and shape
// the response.
//
// # Routes
//
// Mounted under /api/v1/analysis:
//
//	GET  /status            dataset version, counts and failed files
//	GET  /profiles          distinct profile ids
//	GET  /labs              distinct lab names
//	GET  /profile-summary   overall block and per-lab table
//	GET  /lots              lot table and top-20 lots
//	GET  /trend             monthly and weekly trend
//	GET  /weekly            weekly per-lab analysis
//	GET  /report            every view at once
//	POST /reload            rescan the input directory
//
// View routes accept profile, lab and format (json, csv or xlsx). The trend
// CSV takes period=monthly|weekly.
//
// # Responses
//
//	{"status":"success","data":...}
//	{"status":"empty","message":"no data for selection"}
//
// Downloads set Content-Disposition with the report's file name, for
// example monthly_trend_P1_Lab_A.csv. Errors are RFC 7807 problems written
// by the errors package:
//
//	{
//	    "type": "/errors/data/not-loaded",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "No dataset has been loaded yet",
//	    "instance": "/api/v1/analysis/trend"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// AnalysisServiceInterface.
package http
