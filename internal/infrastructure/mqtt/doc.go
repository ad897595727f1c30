// Package mqtt publishes RZA change events to an MQTT broker.
//
// The broker is optional. When mqtt.enabled is set, the events package
// forwards every committed change to {prefix}/events/{entity}/{action} and
// keeps the active revision of each configuration retained on
// {prefix}/configs/{id}/active_revision, so SCADA gateways and
// commissioning tools can follow settings changes without polling the API.
//
// # Connection
//
// Connect dials once with a timeout and then relies on paho's auto-reconnect
// with backoff. A Last Will on {prefix}/system/status marks the core offline
// if it drops without a graceful Close.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    logger.Warn("mqtt unavailable", "error", err)
//	}
//	defer client.Close()
//
//	topic := client.Topics().Event("Device", "update")
//	err = client.Publish(topic, payload, 1, false)
package mqtt
