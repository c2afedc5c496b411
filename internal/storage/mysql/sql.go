package mysql

// ----------------------------------------------------------------------------
// users
// ----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (name, email, password_hash, role, active)
VALUES (?, ?, ?, ?, 1)
`

const getUserSQL = `
SELECT id, name, email, password_hash, role, active, push_token, refresh_hash, last_logout_at, created_at
FROM users
WHERE id = ?
`

const getUserByEmailSQL = `
SELECT id, name, email, password_hash, role, active, push_token, refresh_hash, last_logout_at, created_at
FROM users
WHERE email = ?
`

const listUsersSQL = `
SELECT id, name, email, password_hash, role, active, push_token, refresh_hash, last_logout_at, created_at
FROM users
ORDER BY id
LIMIT ?
`

const updatePasswordSQL = `UPDATE users SET password_hash = ? WHERE id = ?`

const setActiveSQL = `UPDATE users SET active = ? WHERE id = ?`

const setPushTokenSQL = `UPDATE users SET push_token = ? WHERE id = ?`

const setRefreshHashSQL = `UPDATE users SET refresh_hash = ? WHERE id = ?`

const setLastLogoutSQL = `UPDATE users SET last_logout_at = ? WHERE id = ?`

// One in-flight reset per user; a new request replaces the previous OTP.
const upsertResetSQL = `
INSERT INTO password_resets (user_id, otp_hash, generated_at, verified_at)
VALUES (?, ?, ?, NULL)
ON DUPLICATE KEY UPDATE
  otp_hash     = VALUES(otp_hash),
  generated_at = VALUES(generated_at),
  verified_at  = NULL
`

const getResetSQL = `
SELECT user_id, otp_hash, generated_at, verified_at
FROM password_resets
WHERE user_id = ?
`

const verifyResetSQL = `UPDATE password_resets SET verified_at = ? WHERE user_id = ?`

const deleteResetSQL = `DELETE FROM password_resets WHERE user_id = ?`

// ----------------------------------------------------------------------------
// properties
// ----------------------------------------------------------------------------

const insertPropertySQL = `
INSERT INTO properties
  (host_id, source_id, title, description, type, status,
   line1, city, country, postal_code, lat, lng,
   max_guests, bedrooms, bathrooms, nightly_cents, cleaning_cents, currency,
   amenities, images, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Seeded listings are keyed by source_id (unique); re-running the seeder
// refreshes content without duplicating rows.
const upsertPropertySQL = insertPropertySQL + `
ON DUPLICATE KEY UPDATE
  id             = LAST_INSERT_ID(id),
  host_id        = VALUES(host_id),
  title          = VALUES(title),
  description    = VALUES(description),
  type           = VALUES(type),
  line1          = VALUES(line1),
  city           = VALUES(city),
  country        = VALUES(country),
  postal_code    = VALUES(postal_code),
  lat            = VALUES(lat),
  lng            = VALUES(lng),
  max_guests     = VALUES(max_guests),
  bedrooms       = VALUES(bedrooms),
  bathrooms      = VALUES(bathrooms),
  nightly_cents  = VALUES(nightly_cents),
  cleaning_cents = VALUES(cleaning_cents),
  currency       = VALUES(currency),
  amenities      = VALUES(amenities),
  images         = VALUES(images),
  raw            = VALUES(raw),
  updated_at     = CURRENT_TIMESTAMP
`

const updatePropertySQL = `
UPDATE properties SET
  title = ?, description = ?, type = ?,
  line1 = ?, city = ?, country = ?, postal_code = ?, lat = ?, lng = ?,
  max_guests = ?, bedrooms = ?, bathrooms = ?,
  nightly_cents = ?, cleaning_cents = ?, currency = ?,
  amenities = ?, images = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const setPropertyStatusSQL = `UPDATE properties SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

const propertyColumns = `
  p.id, p.host_id, p.source_id, p.title, p.description, p.type, p.status,
  p.line1, p.city, p.country, p.postal_code, p.lat, p.lng,
  p.max_guests, p.bedrooms, p.bathrooms, p.nightly_cents, p.cleaning_cents, p.currency,
  p.amenities, p.images, p.rating_avg, p.review_count, p.created_at, p.updated_at`

const getPropertySQL = `SELECT` + propertyColumns + `
FROM properties p
WHERE p.id = ?
`

const listPropertiesByHostSQL = `SELECT` + propertyColumns + `
FROM properties p
WHERE p.host_id = ?
ORDER BY p.id DESC
`

// ----------------------------------------------------------------------------
// bookings
// ----------------------------------------------------------------------------

const lockPropertySQL = `SELECT status FROM properties WHERE id = ? FOR UPDATE`

// Active bookings block the range; check-out is exclusive, so back-to-back
// stays (out == in) do not collide.
const overlapCountSQL = `
SELECT COUNT(*)
FROM bookings
WHERE property_id = ?
  AND status IN ('pending', 'confirmed')
  AND check_in < ?
  AND check_out > ?
`

const insertBookingSQL = `
INSERT INTO bookings
  (reference, property_id, guest_id, check_in, check_out, guests,
   nightly_cents, cleaning_cents, total_cents, currency, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const bookingColumns = `
  b.id, b.reference, b.property_id, b.guest_id, b.check_in, b.check_out, b.guests,
  b.nightly_cents, b.cleaning_cents, b.total_cents, b.currency, b.status,
  b.created_at, b.updated_at`

const getBookingSQL = `SELECT` + bookingColumns + `
FROM bookings b
WHERE b.id = ?
`

const bookingViewSelect = `SELECT` + bookingColumns + `, p.title, p.city, u.name
FROM bookings b
JOIN properties p ON p.id = b.property_id
JOIN users u ON u.id = b.guest_id
`

const listBookingsInRangeSQL = `SELECT` + bookingColumns + `
FROM bookings b
WHERE b.property_id = ?
  AND b.status IN ('pending', 'confirmed')
  AND b.check_in < ?
  AND b.check_out > ?
ORDER BY b.check_in
`

const hasCompletedStaySQL = `
SELECT COUNT(*)
FROM bookings
WHERE guest_id = ? AND property_id = ? AND status = 'completed'
`

const expirePendingSQL = `
UPDATE bookings SET status = 'expired', updated_at = CURRENT_TIMESTAMP
WHERE status = 'pending' AND created_at < ?
`

const completeFinishedSQL = `
UPDATE bookings SET status = 'completed', updated_at = CURRENT_TIMESTAMP
WHERE status = 'confirmed' AND check_out <= ?
`

// ----------------------------------------------------------------------------
// reviews
// ----------------------------------------------------------------------------

const insertReviewSQL = `
INSERT INTO reviews (property_id, user_id, author, rating, comment)
VALUES (?, ?, ?, ?, ?)
`

const insertReviewsPrefix = `INSERT INTO reviews
  (property_id, source_id, author, rating, comment, created_at, raw)
VALUES `

// COALESCE keeps the old value when the re-seeded payload lacks a field.
// created_at is the first-seen time and never moves on re-seed.
const insertReviewsOnDup = ` ON DUPLICATE KEY UPDATE
  author  = COALESCE(VALUES(author), reviews.author),
  rating  = VALUES(rating),
  comment = COALESCE(VALUES(comment), reviews.comment),
  raw     = COALESCE(VALUES(raw), reviews.raw)
`

const listReviewsSQL = `
SELECT id, property_id, user_id, source_id, author, rating, comment, created_at, raw
FROM reviews
WHERE property_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const refreshRatingSQL = `
UPDATE properties p SET
  p.rating_avg   = (SELECT AVG(r.rating) FROM reviews r WHERE r.property_id = p.id),
  p.review_count = (SELECT COUNT(*) FROM reviews r WHERE r.property_id = p.id)
WHERE p.id = ?
`

// ----------------------------------------------------------------------------
// notifications & favorites
// ----------------------------------------------------------------------------

const insertNotificationSQL = `
INSERT INTO notifications (user_id, kind, title, body)
VALUES (?, ?, ?, ?)
`

const listNotificationsSQL = `
SELECT id, user_id, kind, title, body, read_at, created_at
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const markNotificationReadSQL = `
UPDATE notifications SET read_at = CURRENT_TIMESTAMP
WHERE id = ? AND user_id = ? AND read_at IS NULL
`

const addFavoriteSQL = `INSERT IGNORE INTO favorites (user_id, property_id) VALUES (?, ?)`

const removeFavoriteSQL = `DELETE FROM favorites WHERE user_id = ? AND property_id = ?`

const listFavoritesSQL = `SELECT` + propertyColumns + `
FROM properties p
JOIN favorites f ON f.property_id = p.id
WHERE f.user_id = ?
ORDER BY f.created_at DESC
`
