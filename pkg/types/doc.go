// Package types defines the Store and Table interfaces, the page record
// types (notes, screenshots, transcriptions, summaries), the settings
// document, the export document, and the standard errors for the kungfu
// page-notes store.
package types
