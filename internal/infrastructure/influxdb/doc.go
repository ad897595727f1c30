// Package influxdb writes RZA change history to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - audit_events: one point per committed change (tags action, entity, actor)
//   - revision_activations: one point each time a revision becomes active
//     (tag config_id)
//
// They let operators chart settings churn per substation over time without
// querying the audit table.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    logger.Warn("influxdb unavailable", "error", err)
//	}
//	defer client.Close()
//
//	client.WriteRevisionActivation(7, 21, 3, time.Now())
//
// # Error Handling
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Batch errors are delivered to the SetOnError callback.
// Connection and health check errors are returned directly.
package influxdb
