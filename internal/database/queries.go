package database

// Event queries
const (
	insertEventQuery = `
		INSERT INTO events (event_type, received_at, raw_payload, object_type, processed)
		VALUES (?, ?, ?, ?, ?)
	`

	selectEventByPayloadQuery = `
		SELECT id, event_type, received_at, raw_payload, object_type, processed, created_at
		FROM events
		WHERE raw_payload = ? AND event_type = ?
		LIMIT 1
	`

	selectEventByIDQuery = `
		SELECT id, event_type, received_at, raw_payload, object_type, processed, created_at
		FROM events
		WHERE id = ?
	`

	deleteOldEventsQuery = `
		DELETE FROM events
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`
)

// Message queries
const (
	insertMessageQuery = `
		INSERT INTO messages (
			event_id, message_id, sender_id, recipient_id, text,
			timestamp, kind, is_echo, app_id, postback_payload,
			delivery_watermark, responded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectMessagesByEventIDQuery = `
		SELECT id, event_id, message_id, sender_id, recipient_id, text,
		       timestamp, kind, is_echo, app_id, postback_payload,
		       delivery_watermark, responded, created_at
		FROM messages
		WHERE event_id = ?
		ORDER BY id
	`

	selectUnrespondedMessagesQuery = `
		SELECT id, event_id, message_id, sender_id, recipient_id, text,
		       timestamp, kind, is_echo, app_id, postback_payload,
		       delivery_watermark, responded, created_at
		FROM messages
		WHERE responded = FALSE AND is_echo = FALSE AND kind = 'message'
		ORDER BY timestamp ASC
	`
)
