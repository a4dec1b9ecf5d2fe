package mysql

// -----------------------------------------------------------------------------
// CATALOG WRITES
// -----------------------------------------------------------------------------

const upsertConfigSQL = `
INSERT INTO app_config (k, value)
VALUES ('trip', ?)
ON DUPLICATE KEY UPDATE
  value      = VALUES(value),
  updated_at = CURRENT_TIMESTAMP
`

const upsertCitySQL = `
INSERT INTO cities (id, name, dates)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  dates      = VALUES(dates),
  updated_at = CURRENT_TIMESTAMP
`

const insertHotelSQL = `
INSERT INTO hotels (id, city_id, name, price2, price3, image, link, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertHotelSQL = insertHotelSQL + `
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  price2     = VALUES(price2),
  price3     = VALUES(price3),
  image      = VALUES(image),
  link       = VALUES(link),
  notes      = VALUES(notes),
  updated_at = CURRENT_TIMESTAMP
`

const updateHotelSQL = `
UPDATE hotels
SET name = ?, price2 = ?, price3 = ?, image = ?, link = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE city_id = ? AND id = ?
`

// Hotel deletion reconciles dependents first: both statements run inside one
// transaction so a selection never outlives its hotel.
const deleteHotelSelectionsSQL = `DELETE FROM selections WHERE city_id = ? AND hotel_id = ?`
const deleteHotelSQL = `DELETE FROM hotels WHERE city_id = ? AND id = ?`

// -----------------------------------------------------------------------------
// CATALOG READS
// -----------------------------------------------------------------------------

const getConfigSQL = `SELECT value FROM app_config WHERE k = 'trip'`

const listCitiesSQL = `SELECT id, name, dates FROM cities ORDER BY id`

const listHotelsSQL = `
SELECT id, city_id, name, price2, price3, image, link, notes
FROM hotels
ORDER BY city_id, id
`

const getHotelSQL = `
SELECT id, city_id, name, price2, price3, image, link, notes
FROM hotels
WHERE city_id = ? AND id = ?
`

const cityExistsSQL = `SELECT EXISTS(SELECT 1 FROM cities WHERE id = ?)`

// -----------------------------------------------------------------------------
// SELECTIONS
// -----------------------------------------------------------------------------

// The unique key over (city_id, voter_name, device_id) is what enforces
// "at most one active selection per (city, identity)": a racing insert for
// the same key collapses into the UPDATE branch instead of a second row.
const upsertSelectionSQL = `
INSERT INTO selections (city_id, hotel_id, voter_name, device_id, occupancy, notes)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  hotel_id   = VALUES(hotel_id),
  occupancy  = VALUES(occupancy),
  notes      = VALUES(notes),
  updated_at = CURRENT_TIMESTAMP(3)
`

const getSelectionSQL = `
SELECT id, city_id, hotel_id, voter_name, device_id, occupancy, notes, updated_at
FROM selections
WHERE city_id = ? AND voter_name = ? AND device_id = ?
`

const deleteByIdentitySQL = `DELETE FROM selections WHERE voter_name = ? AND device_id = ?`

const deleteAllSelectionsSQL = `DELETE FROM selections`

// Newest first; id breaks same-millisecond ties deterministically.
const listSelectionsSQL = `
SELECT id, city_id, hotel_id, voter_name, device_id, occupancy, notes, updated_at
FROM selections
ORDER BY updated_at DESC, id DESC
`
