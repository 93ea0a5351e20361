package mysql

// ---- users ----

const insertUserSQL = `
INSERT INTO users (username, email, first_name, last_name, password_hash, date_joined)
VALUES (?, ?, ?, ?, ?, ?)
`

const insertProfileSQL = `
INSERT INTO profiles (user_id, image, bio)
VALUES (?, ?, ?)
`

const selectUserSQL = `
SELECT id, username, email, first_name, last_name, password_hash, date_joined
FROM users
`

const selectProfileSQL = `
SELECT user_id, image, bio
FROM profiles
WHERE user_id = ?
`

const updateUserSQL = `
UPDATE users
SET username = ?, email = ?, first_name = ?, last_name = ?
WHERE id = ?
`

const updateProfileSQL = `
UPDATE profiles
SET image = ?, bio = ?
WHERE user_id = ?
`

// ---- experiences ----

const insertExperienceSQL = `
INSERT INTO experiences
  (owner_id, title, description, price, hours, minutes, language, city, address, zipcode, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectExperienceSQL = `
SELECT id, owner_id, title, description, price, hours, minutes, language, city, address, zipcode, created_at, updated_at
FROM experiences
`

// owner_id is not in the SET list; ownership never changes after creation.
const updateExperienceSQL = `
UPDATE experiences
SET title = ?, description = ?, price = ?, hours = ?, minutes = ?,
    language = ?, city = ?, address = ?, zipcode = ?, updated_at = ?
WHERE id = ?
`

// bookings, reviews and photos go with it through ON DELETE CASCADE.
const deleteExperienceSQL = `DELETE FROM experiences WHERE id = ?`

// ---- bookings ----

const insertBookingSQL = `
INSERT INTO bookings (experience_id, user_id, date, slot, created_at)
VALUES (?, ?, ?, ?, ?)
`

const selectBookingSQL = `
SELECT id, experience_id, user_id, date, slot, created_at
FROM bookings
`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

// ---- reviews ----

const insertReviewSQL = `
INSERT INTO reviews (experience_id, user_id, rating, comment, created_at)
VALUES (?, ?, ?, ?, ?)
`

const listReviewsSQL = `
SELECT id, experience_id, user_id, rating, comment, created_at
FROM reviews
WHERE experience_id = ?
ORDER BY created_at DESC, id DESC
`

// ---- photos ----

const insertPhotoSQL = `
INSERT INTO photos (url, experience_id)
VALUES (?, ?)
`

const listPhotosSQL = `
SELECT id, url, experience_id
FROM photos
WHERE experience_id = ?
ORDER BY id
`
