// Package services contains the business layer between the HTTP
// transport and the dataset engine: dataset loading, query supersession
// and export orchestration.
package services
